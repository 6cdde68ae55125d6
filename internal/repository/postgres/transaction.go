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

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, user_id, type, amount, status, created_at, updated_at`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	const createTransaction = `
	INSERT INTO transactions (id, user_id, type, amount, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + transactionColumns

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}

	rows, _ := r.DB.Query(ctx, createTransaction, t.ID, t.UserID, t.Type, t.Amount, t.Status)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Transaction, error) {
	getTransaction := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if forUpdate {
		getTransaction += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, getTransaction, id)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, apperrors.ErrTransactionNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

func (r *TransactionRepo) Complete(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	const complete = `
	UPDATE transactions
	SET status = 'completed', updated_at = clock_timestamp()
	WHERE id = $1 AND status = 'pending'
	RETURNING ` + transactionColumns

	rows, _ := r.DB.Query(ctx, complete, id)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Distinguish missing transaction from the completed one
		if _, getErr := r.GetTransaction(ctx, id, false); getErr != nil {
			return t, getErr
		}
		return t, apperrors.ErrTransactionNotPending
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	const listByUser = `
	SELECT ` + transactionColumns + `
	FROM transactions
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	`

	rows, _ := r.DB.Query(ctx, listByUser, userID)
	return collectTransactions(rows)
}

func (r *TransactionRepo) ListAll(ctx context.Context) ([]models.Transaction, error) {
	const listAll = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC, id`

	rows, _ := r.DB.Query(ctx, listAll)
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
