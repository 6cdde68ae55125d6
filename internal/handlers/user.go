package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/handlers/render"
	"github.com/nkiryanov/sharefin/internal/handlers/userctx"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/models"
)

type profileResponse struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	AvatarURL        string    `json:"avatar_url"`
	KYCStatus        string    `json:"kyc_status"`
	IsAdmin          bool      `json:"is_admin"`
	Balance          string    `json:"balance"`
	TotalEarnings    string    `json:"total_earnings"`
	TotalDeposits    string    `json:"total_deposits"`
	TotalWithdrawals string    `json:"total_withdrawals"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		ID:               p.ID,
		FullName:         p.FullName,
		AvatarURL:        p.AvatarURL,
		KYCStatus:        p.KYCStatus,
		IsAdmin:          p.IsAdmin,
		Balance:          p.Balance.StringFixed(2),
		TotalEarnings:    p.TotalEarnings.StringFixed(2),
		TotalDeposits:    p.TotalDeposits.StringFixed(2),
		TotalWithdrawals: p.TotalWithdrawals.StringFixed(2),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func handleUserMe(ps profileService, l logger.Logger) http.Handler {
	type response struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
		IsAdmin  bool      `json:"is_admin"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		profile, err := ps.Get(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, response{ID: user.ID, Username: user.Username, IsAdmin: profile.IsAdmin})
	})
}

func handleGetProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		profile, err := ps.Get(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newProfileResponse(profile))
	})
}

func handleUpdateProfile(ps profileService, l logger.Logger) http.Handler {
	type request struct {
		FullName  *string `json:"full_name" validate:"omitempty,max=100"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		user, _ := userctx.FromContext(r.Context())

		profile, err := ps.UpdateDetails(r.Context(), user.ID, models.ProfileDetails{
			FullName:  data.FullName,
			AvatarURL: data.AvatarURL,
		})
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newProfileResponse(profile))
	})
}
