package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/api/validators"
	"github.com/inkwellbooks/inkwell-backend/internal/payments"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type paymentView struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	AmountCents   int                 `json:"amount_cents"`
	TransactionID string              `json:"transaction_id"`
	RefundOfID    *uuid.UUID          `json:"refund_of_id,omitempty"`
	Note          *string             `json:"note,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newPaymentView(payment *models.Payment) paymentView {
	return paymentView{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		Method:        payment.Method,
		Status:        payment.Status,
		AmountCents:   payment.AmountCents,
		TransactionID: payment.TransactionID,
		RefundOfID:    payment.RefundOfID,
		Note:          payment.Note,
		CompletedAt:   payment.CompletedAt,
		CreatedAt:     payment.CreatedAt,
	}
}

type paymentResponse struct {
	types.OK
	Payment paymentView `json:"payment"`
}

// PaymentCreate records a pending payment against an order.
func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			OrderID       uuid.UUID `json:"order_id" validate:"required"`
			Method        string    `json:"method" validate:"required"`
			AmountCents   int       `json:"amount_cents" validate:"required"`
			TransactionID string    `json:"transaction_id"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Create(r.Context(), customerID, payments.CreateInput{
			OrderID:       payload.OrderID,
			Method:        enums.PaymentMethod(payload.Method),
			AmountCents:   payload.AmountCents,
			TransactionID: payload.TransactionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentResponse{OK: types.Ok(), Payment: newPaymentView(payment)})
	}
}

// PaymentComplete settles a pending payment and confirms its order.
func PaymentComplete(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			PaymentID     uuid.UUID `json:"payment_id" validate:"required"`
			TransactionID string    `json:"transaction_id" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Complete(r.Context(), customerID, payload.PaymentID, payload.TransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentResponse{OK: types.Ok(), Payment: newPaymentView(payment)})
	}
}

// PaymentRefund records a negative payment row against a completed payment.
func PaymentRefund(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			PaymentID   uuid.UUID `json:"payment_id" validate:"required"`
			AmountCents int       `json:"amount_cents" validate:"required"`
			Reason      string    `json:"reason"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Refund(r.Context(), customerID, payments.RefundInput{
			PaymentID:   payload.PaymentID,
			AmountCents: payload.AmountCents,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentResponse{OK: types.Ok(), Payment: newPaymentView(refund)})
	}
}
