package controllers

import (
	"net/http"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/api/validators"
	"github.com/inkwellbooks/inkwell-backend/internal/checkout"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type checkoutResponse struct {
	types.OK
	Order    orderView `json:"order"`
	Replayed bool      `json:"replayed"`
}

// Checkout converts the active cart into an order in one transaction. Replays
// of the same idempotency key return the original order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			IdempotencyKey  string         `json:"idempotency_key" validate:"required"`
			PaymentMethod   string         `json:"payment_method" validate:"required"`
			ShippingOption  string         `json:"shipping_option" validate:"required"`
			PromoCode       string         `json:"promo_code"`
			ShippingAddress types.Address  `json:"shipping_address" validate:"required"`
			BillingAddress  *types.Address `json:"billing_address"`
			ContactEmail    string         `json:"contact_email" validate:"required,email"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.Input{
			IdempotencyKey:  payload.IdempotencyKey,
			PaymentMethod:   enums.PaymentMethod(payload.PaymentMethod),
			ShippingOption:  enums.ShippingOption(payload.ShippingOption),
			PromoCode:       payload.PromoCode,
			ShippingAddress: payload.ShippingAddress,
			ContactEmail:    payload.ContactEmail,
		}
		if payload.BillingAddress != nil {
			input.BillingAddress = *payload.BillingAddress
		}

		result, err := svc.Checkout(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutResponse{
			OK:       types.Ok(),
			Order:    newOrderView(result.Order),
			Replayed: result.Replayed,
		})
	}
}
