package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/handlers/render"
	"github.com/nkiryanov/sharefin/internal/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
		FullName string `json:"full_name" validate:"max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Register(r.Context(), data.Login, data.Password, data.FullName)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			case errors.Is(err, apperrors.ErrValidation):
				render.ServiceError(w, apperrors.Message(err), http.StatusUnprocessableEntity)
			default:
				l.Error("register failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, messageResponse{Message: "User registered successfully"})
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Login(r.Context(), data.Login, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, messageResponse{Message: "User logged in successfully"})
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := as.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := as.RefreshPair(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrUnauthenticated):
				render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, messageResponse{Message: "Tokens refreshed successfully"})
	})
}

// Logout always succeeds for the client: cookie is removed even if token is unknown
func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if refresh, err := as.GetRefreshString(r); err == nil {
			if err := as.Logout(r.Context(), refresh); err != nil {
				l.Error("logout failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		as.UnsetRefreshCookie(w)
		render.JSON(w, messageResponse{Message: "User logged out successfully"})
	})
}
