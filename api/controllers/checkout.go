package controllers

import (
	"net/http"

	"github.com/polybazaar/polybazaar-backend/api/responses"
	"github.com/polybazaar/polybazaar-backend/api/validators"
	checkoutsvc "github.com/polybazaar/polybazaar-backend/internal/checkout"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
	"github.com/polybazaar/polybazaar-backend/pkg/logger"
)

// Checkout converts the buyer's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actorID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), actorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
