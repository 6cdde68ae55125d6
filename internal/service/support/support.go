package support

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

type SupportService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *SupportService {
	return &SupportService{storage: storage}
}

// Open support ticket
// Empty priority means medium
func (s *SupportService) CreateTicket(ctx context.Context, userID uuid.UUID, subject string, description string, priority string) (models.SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return models.SupportTicket{}, apperrors.ErrTicketSubjectEmpty
	}

	if priority == "" {
		priority = models.TicketPriorityMedium
	}
	if !models.IsTicketPriority(priority) {
		return models.SupportTicket{}, apperrors.ErrTicketPriorityInvalid
	}

	ticket, err := s.storage.Ticket().CreateTicket(ctx, models.SupportTicket{
		UserID:      userID,
		Subject:     subject,
		Description: strings.TrimSpace(description),
		Status:      models.TicketStatusOpen,
		Priority:    priority,
	})
	if err != nil {
		return ticket, fmt.Errorf("can't create ticket. Err: %w", err)
	}

	return ticket, nil
}

func (s *SupportService) ListTickets(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error) {
	tickets, err := s.storage.Ticket().ListTickets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't list tickets. Err: %w", err)
	}
	return tickets, nil
}
