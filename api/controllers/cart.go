package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/inkwellbooks/inkwell-backend/api/middleware"
	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/api/validators"
	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type cartLineResponse struct {
	types.OK
	LineID     uuid.UUID  `json:"line_id"`
	BookID     uuid.UUID  `json:"book_id"`
	Quantity   int        `json:"quantity"`
	Saved      bool       `json:"saved"`
	PreOrderID *uuid.UUID `json:"pre_order_id,omitempty"`
}

func newCartLineResponse(line *models.CartLine) cartLineResponse {
	return cartLineResponse{
		OK:         types.Ok(),
		LineID:     line.ID,
		BookID:     line.BookID,
		Quantity:   line.Quantity,
		Saved:      line.Saved,
		PreOrderID: line.PreOrderID,
	}
}

type cartViewResponse struct {
	types.OK
	cart.View
}

// CartAdd puts a book in the customer's cart; out-of-stock titles become
// pending pre-orders.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			BookID   uuid.UUID `json:"book_id" validate:"required"`
			Quantity int       `json:"quantity" validate:"required,min=1"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.Add(r.Context(), customerID, cart.AddInput{
			BookID:   payload.BookID,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartLineResponse(line))
	}
}

// CartUpdate sets the quantity on an existing line.
func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			LineID   uuid.UUID `json:"line_id" validate:"required"`
			Quantity int       `json:"quantity" validate:"required,min=1"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.SetQuantity(r.Context(), customerID, payload.LineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartLineResponse(line))
	}
}

// CartRemove deletes the given lines from the customer's cart.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			LineIDs []uuid.UUID `json:"line_ids" validate:"required,min=1"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), customerID, payload.LineIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Ok())
	}
}

// CartToggleSave flips a line between the active cart and saved-for-later.
func CartToggleSave(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			LineID uuid.UUID `json:"line_id" validate:"required"`
			Saved  bool      `json:"saved"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.ToggleSave(r.Context(), customerID, payload.LineID, payload.Saved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartLineResponse(line))
	}
}

// CartFetch returns the customer's cart split into active and saved lines.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartViewResponse{OK: types.Ok(), View: *view})
	}
}

func requireCustomer(r *http.Request) (uuid.UUID, error) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	if customerID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return customerID, nil
}
