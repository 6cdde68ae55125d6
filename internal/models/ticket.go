package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

type SupportTicket struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Subject     string
	Description string
	Status      string
	Priority    string
	CreatedAt   time.Time
}

func IsTicketPriority(value string) bool {
	switch value {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	default:
		return false
	}
}
