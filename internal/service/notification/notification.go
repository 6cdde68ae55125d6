package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

type NotificationService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *NotificationService {
	return &NotificationService{storage: storage}
}

// Notifications of the user, newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	notifications, err := s.storage.Notification().ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't list notifications. Err: %w", err)
	}
	return notifications, nil
}

// Mark notification read
// Notification of other user is reported as not found
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Notification, error) {
	return s.storage.Notification().MarkRead(ctx, userID, id)
}
