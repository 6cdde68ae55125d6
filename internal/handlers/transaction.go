package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/sharefin/internal/handlers/render"
	"github.com/nkiryanov/sharefin/internal/handlers/userctx"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/models"
)

type transactionResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		UserName:  t.UserName,
		Type:      t.Type,
		Amount:    t.Amount.StringFixed(2),
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func newTransactionsResponse(ts []models.Transaction) []transactionResponse {
	resp := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		resp = append(resp, newTransactionResponse(t))
	}
	return resp
}

func handleListOwnTransactions(ls ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		transactions, err := ls.ListOwn(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newTransactionsResponse(transactions))
	})
}

func handleCreateTransaction(ls ledgerService, l logger.Logger) http.Handler {
	// Amount is accepted both as JSON number and string
	type request struct {
		Type   string          `json:"type" validate:"required,oneof=deposit withdraw"`
		Amount decimal.Decimal `json:"amount"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		user, _ := userctx.FromContext(r.Context())

		t, err := ls.Create(r.Context(), user.ID, data.Type, data.Amount)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSONStatus(w, newTransactionResponse(t), http.StatusCreated)
	})
}

func handleListAllTransactions(ls ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		transactions, err := ls.ListAll(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newTransactionsResponse(transactions))
	})
}

func handleApproveTransaction(as approvalService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		user, _ := userctx.FromContext(r.Context())

		t, err := as.Approve(r.Context(), id, user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newTransactionResponse(t))
	})
}
