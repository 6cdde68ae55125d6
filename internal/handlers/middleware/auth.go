package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/handlers/render"
	"github.com/nkiryanov/sharefin/internal/handlers/userctx"
	"github.com/nkiryanov/sharefin/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// Authenticate request and put user to context
// Only authentication failures are 401: clients drop the session on it
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
			case errors.Is(err, apperrors.ErrUnauthenticated):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
		})
	}
}
