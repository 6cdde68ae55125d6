package postgres

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sharefin/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{DB: s.db}
}

func (s *Storage) Profile() repository.ProfileRepo {
	return &ProfileRepo{DB: s.db}
}

func (s *Storage) Transaction() repository.TransactionRepo {
	return &TransactionRepo{DB: s.db}
}

func (s *Storage) Notification() repository.NotificationRepo {
	return &NotificationRepo{DB: s.db}
}

func (s *Storage) Ticket() repository.TicketRepo {
	return &TicketRepo{DB: s.db}
}

// InTx runs fn with storage bound to a new db transaction
// Nested calls use savepoints
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}

		switch err {
		case nil:
			if cErr := tx.Commit(ctx); cErr != nil {
				err = fmt.Errorf("db tx commit error: %w", cErr)
			}
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
