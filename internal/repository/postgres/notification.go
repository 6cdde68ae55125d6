package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
)

type NotificationRepo struct {
	DB DBTX
}

const notificationColumns = `id, user_id, title, message, type, read, created_at`

func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	const createNotification = `
	INSERT INTO notifications (id, user_id, title, message, type, read)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + notificationColumns

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createNotification, n.ID, n.UserID, n.Title, n.Message, n.Type, n.Read)
	created, err := pgx.CollectOneRow(rows, rowToNotification)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *NotificationRepo) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	const listNotifications = `
	SELECT ` + notificationColumns + `
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	`

	rows, _ := r.DB.Query(ctx, listNotifications, userID)
	notifications, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Notification, error) {
	const markRead = `
	UPDATE notifications
	SET read = TRUE
	WHERE id = $1 AND user_id = $2
	RETURNING ` + notificationColumns

	rows, _ := r.DB.Query(ctx, markRead, id, userID)
	n, err := pgx.CollectOneRow(rows, rowToNotification)

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, pgx.ErrNoRows):
		return n, apperrors.ErrNotificationNotFound
	default:
		return n, fmt.Errorf("db error: %w", err)
	}
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt)
	return n, err
}
