package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/api/validators"
	"github.com/inkwellbooks/inkwell-backend/internal/preorder"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type preOrderView struct {
	ID                   uuid.UUID            `json:"id"`
	BookID               uuid.UUID            `json:"book_id"`
	Quantity             int                  `json:"quantity"`
	TotalCents           int                  `json:"total_cents"`
	Status               enums.PreOrderStatus `json:"status"`
	ExpectedDeliveryDate *time.Time           `json:"expected_delivery_date,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}

func newPreOrderView(row *models.PreOrder) preOrderView {
	return preOrderView{
		ID:                   row.ID,
		BookID:               row.BookID,
		Quantity:             row.Quantity,
		TotalCents:           row.TotalCents,
		Status:               row.Status,
		ExpectedDeliveryDate: row.ExpectedDeliveryDate,
		CreatedAt:            row.CreatedAt,
	}
}

type preOrderResponse struct {
	types.OK
	PreOrder preOrderView `json:"pre_order"`
}

type preOrderListResponse struct {
	types.OK
	PreOrders []preOrderView `json:"pre_orders"`
}

func decodePreOrderID(r *http.Request) (uuid.UUID, error) {
	var payload struct {
		PreOrderID uuid.UUID `json:"pre_order_id" validate:"required"`
	}
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return uuid.Nil, err
	}
	return payload.PreOrderID, nil
}

func preOrderTransition(
	logg *logger.Logger,
	op func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preOrderID, err := decodePreOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := op(r, customerID, preOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, preOrderResponse{OK: types.Ok(), PreOrder: newPreOrderView(row)})
	}
}

// PreOrderConfirm moves a pending pre-order to confirmed and stamps the
// expected delivery date.
func PreOrderConfirm(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return preOrderTransition(logg, func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
		return svc.Confirm(r.Context(), customerID, preOrderID)
	})
}

// PreOrderCancel cancels a pre-order; cancelling twice is a no-op.
func PreOrderCancel(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return preOrderTransition(logg, func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
		return svc.Cancel(r.Context(), customerID, preOrderID)
	})
}

// PreOrderMarkAvailable records stock arrival for a confirmed pre-order.
func PreOrderMarkAvailable(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return preOrderTransition(logg, func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
		return svc.MarkAvailable(r.Context(), customerID, preOrderID)
	})
}

// PreOrderMarkShipped marks an available pre-order as shipped.
func PreOrderMarkShipped(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return preOrderTransition(logg, func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
		return svc.MarkShipped(r.Context(), customerID, preOrderID)
	})
}

// PreOrderMarkDelivered marks a shipped pre-order as delivered.
func PreOrderMarkDelivered(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return preOrderTransition(logg, func(r *http.Request, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
		return svc.MarkDelivered(r.Context(), customerID, preOrderID)
	})
}

// PreOrderFulfill converts an available pre-order into a real order, reserving
// stock in the same transaction.
func PreOrderFulfill(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preOrderID, err := decodePreOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.FulfillToOrder(r.Context(), customerID, preOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponse{OK: types.Ok(), Order: newOrderView(order)})
	}
}

// PreOrderList returns all of the customer's pre-orders.
func PreOrderList(svc preorder.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := preOrderListResponse{OK: types.Ok(), PreOrders: make([]preOrderView, 0, len(rows))}
		for i := range rows {
			resp.PreOrders = append(resp.PreOrders, newPreOrderView(&rows[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
