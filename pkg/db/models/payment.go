package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
)

// Payment records money movement against an order. Refunds are separate rows
// with a negative amount and a back-reference; the original row is never
// destructively updated.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Method        enums.PaymentMethod `gorm:"column:method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	AmountCents   int                 `gorm:"column:amount_cents;not null"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex:ux_payments_transaction_id"`
	RefundOfID    *uuid.UUID          `gorm:"column:refund_of_id;type:uuid"`
	Note          *string             `gorm:"column:note"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRefund reports whether this row reverses another payment.
func (p Payment) IsRefund() bool {
	return p.RefundOfID != nil
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
