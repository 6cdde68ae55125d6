package models

import (
	"time"

	"github.com/google/uuid"
)

const NotificationTypeTransactionApproved = "transaction_approved"

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Message   string
	Type      string
	Read      bool
	CreatedAt time.Time
}
