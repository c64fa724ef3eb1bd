package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Event data shapes published to the orders topic. Consumers rely on these
// staying backwards compatible; add fields, never repurpose them.

type OrderCreatedData struct {
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalCents int       `json:"totalCents"`
	LineCount  int       `json:"lineCount"`
}

type OrderConfirmedData struct {
	OrderID     uuid.UUID `json:"orderId"`
	CustomerID  uuid.UUID `json:"customerId"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

type PaymentCompletedData struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	OrderID       uuid.UUID `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	AmountCents   int       `json:"amountCents"`
}

type PaymentRefundedData struct {
	PaymentID       uuid.UUID `json:"paymentId"`
	RefundPaymentID uuid.UUID `json:"refundPaymentId"`
	OrderID         uuid.UUID `json:"orderId"`
	AmountCents     int       `json:"amountCents"`
	FullyRefunded   bool      `json:"fullyRefunded"`
}

type PreOrderFulfilledData struct {
	PreOrderID uuid.UUID `json:"preOrderId"`
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
}
