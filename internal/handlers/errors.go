package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/handlers/render"
	"github.com/nkiryanov/sharefin/internal/logger"
)

// Map error kind to HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Render service error with status of its kind
// Store failures name the failed step, other unknown errors are hidden
func renderError(w http.ResponseWriter, err error, l logger.Logger) {
	status := statusOf(err)
	message := apperrors.Message(err)

	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		message = fmt.Sprintf("Storage failure at step %q", storeErr.Step)
	}

	if status == http.StatusInternalServerError {
		l.Error("request failed", "error", err)
	}

	render.ServiceError(w, message, status)
}

// Parse uuid path parameter, writes 400 if it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		render.ServiceError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
