package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/sharefin/internal/models"
)

type TicketRepo struct {
	DB DBTX
}

const ticketColumns = `id, user_id, subject, description, status, priority, created_at`

func (r *TicketRepo) CreateTicket(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error) {
	const createTicket = `
	INSERT INTO support_tickets (id, user_id, subject, description, status, priority)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + ticketColumns

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TicketStatusOpen
	}

	rows, _ := r.DB.Query(ctx, createTicket, t.ID, t.UserID, t.Subject, t.Description, t.Status, t.Priority)
	created, err := pgx.CollectOneRow(rows, rowToTicket)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *TicketRepo) ListTickets(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error) {
	const listTickets = `
	SELECT ` + ticketColumns + `
	FROM support_tickets
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	`

	rows, _ := r.DB.Query(ctx, listTickets, userID)
	tickets, err := pgx.CollectRows(rows, rowToTicket)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tickets, nil
}

func rowToTicket(row pgx.CollectableRow) (models.SupportTicket, error) {
	var t models.SupportTicket
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Description, &t.Status, &t.Priority, &t.CreatedAt)
	return t, err
}
