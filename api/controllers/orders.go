package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/api/validators"
	"github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/pagination"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type orderLineView struct {
	BookID         uuid.UUID `json:"book_id"`
	Title          string    `json:"title"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	SubtotalCents  int       `json:"subtotal_cents"`
}

type orderView struct {
	ID              uuid.UUID            `json:"id"`
	Status          enums.OrderStatus    `json:"status"`
	SubtotalCents   int                  `json:"subtotal_cents"`
	DiscountCents   int                  `json:"discount_cents"`
	TaxCents        int                  `json:"tax_cents"`
	ShippingCents   int                  `json:"shipping_cents"`
	TotalCents      int                  `json:"total_cents"`
	PromoCode       *string              `json:"promo_code,omitempty"`
	ShippingOption  enums.ShippingOption `json:"shipping_option"`
	ShippingAddress types.Address        `json:"shipping_address"`
	BillingAddress  types.Address        `json:"billing_address"`
	ContactEmail    string               `json:"contact_email"`
	Lines           []orderLineView      `json:"lines"`
	Payments        []paymentView        `json:"payments,omitempty"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:              order.ID,
		Status:          order.Status,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		TaxCents:        order.TaxCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		PromoCode:       order.PromoCode,
		ShippingOption:  order.ShippingOption,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		ContactEmail:    order.ContactEmail,
		Lines:           make([]orderLineView, 0, len(order.Lines)),
		ConfirmedAt:     order.ConfirmedAt,
		CreatedAt:       order.CreatedAt,
	}
	for _, line := range order.Lines {
		view.Lines = append(view.Lines, orderLineView{
			BookID:         line.BookID,
			Title:          line.Title,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.SubtotalCents,
		})
	}
	for _, payment := range order.Payments {
		view.Payments = append(view.Payments, newPaymentView(&payment))
	}
	return view
}

type orderResponse struct {
	types.OK
	Order orderView `json:"order"`
}

type orderListResponse struct {
	types.OK
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// OrderFetch returns one of the customer's orders with lines and payments.
func OrderFetch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponse{OK: types.Ok(), Order: newOrderView(order)})
	}
}

// OrderList returns a page of the customer's order history, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), customerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := orderListResponse{
			OK:         types.Ok(),
			Orders:     make([]orderView, 0, len(list.Orders)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Orders {
			resp.Orders = append(resp.Orders, newOrderView(&list.Orders[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
