package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/models"
)

// Storage gives access to every repository sharing the same connection or db transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Profile() ProfileRepo
	Transaction() TransactionRepo
	Notification() NotificationRepo
	Ticket() TicketRepo

	// Run fn in db transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

type UserRepo interface {
	// Has to return apperrors.ErrUserAlreadyExists if username is taken
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not exists
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return token even it is expired or used
	// Has to return apperrors.ErrRefreshTokenNotFound if token not exists
	Get(ctx context.Context, token string) (models.RefreshToken, error)

	// Mark token used and return it
	// Must not overwrite 'used_at' of already used token and has to return apperrors.ErrRefreshTokenIsUsed with the token
	GetAndMarkUsed(ctx context.Context, token string) (models.RefreshToken, error)
}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, fullName string) (models.Profile, error)

	// Lock row till the end of db transaction if forUpdate is set
	// Has to return apperrors.ErrProfileNotFound if profile not exists
	GetProfile(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Profile, error)

	// Write balance and cumulative counters if stored version equals p.Version
	// Has to return apperrors.ErrProfileConflict if the version is changed already
	UpdateBalance(ctx context.Context, p models.Profile) (models.Profile, error)

	// Update descriptive fields only, nil fields of d keep stored values
	UpdateDetails(ctx context.Context, userID uuid.UUID, d models.ProfileDetails) (models.Profile, error)

	SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error

	// Resolve display names with one query
	// Profiles without full name are resolved to the username
	DisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type TransactionRepo interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Lock row till the end of db transaction if forUpdate is set
	// Has to return apperrors.ErrTransactionNotFound if transaction not exists
	GetTransaction(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Transaction, error)

	// Move pending transaction to completed
	// Has to return apperrors.ErrTransactionNotPending if it is not pending
	Complete(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// Newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

	// Has to return apperrors.ErrNotificationNotFound if notification not exists or belongs to other user
	MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Notification, error)
}

type TicketRepo interface {
	CreateTicket(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error)
	ListTickets(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error)
}
