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

type ticketResponse struct {
	ID          uuid.UUID `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTicketResponse(t models.SupportTicket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
	}
}

func handleCreateTicket(ss supportService, l logger.Logger) http.Handler {
	type request struct {
		Subject     string `json:"subject" validate:"required,max=200"`
		Description string `json:"description" validate:"max=5000"`
		Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		user, _ := userctx.FromContext(r.Context())

		ticket, err := ss.CreateTicket(r.Context(), user.ID, data.Subject, data.Description, data.Priority)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSONStatus(w, newTicketResponse(ticket), http.StatusCreated)
	})
}

func handleListTickets(ss supportService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		tickets, err := ss.ListTickets(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		resp := make([]ticketResponse, 0, len(tickets))
		for _, t := range tickets {
			resp = append(resp, newTicketResponse(t))
		}
		render.JSON(w, resp)
	})
}
