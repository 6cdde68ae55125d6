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

type notificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func handleListNotifications(ns notificationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		notifications, err := ns.List(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		resp := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			resp = append(resp, newNotificationResponse(n))
		}
		render.JSON(w, resp)
	})
}

func handleMarkNotificationRead(ns notificationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		user, _ := userctx.FromContext(r.Context())

		n, err := ns.MarkRead(r.Context(), user.ID, id)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newNotificationResponse(n))
	})
}
