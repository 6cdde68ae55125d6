package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/authz"
	"github.com/nkiryanov/sharefin/internal/metrics"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

// Amounts are stored with cents precision
const amountScale = 2

type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

// Check amount and type of a transaction request
func ValidateRequest(txType string, amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperrors.ErrAmountNotPositive
	case !amount.Equal(amount.Truncate(amountScale)):
		return apperrors.ErrAmountPrecision
	case amount.GreaterThan(models.MaxAmount):
		return apperrors.ErrAmountTooLarge
	case !models.IsTransactionType(txType):
		return apperrors.ErrTransactionTypeInvalid
	default:
		return nil
	}
}

// Create pending deposit or withdrawal request
// Balance is not touched until the request is approved
func (s *LedgerService) Create(ctx context.Context, userID uuid.UUID, txType string, amount decimal.Decimal) (models.Transaction, error) {
	if err := ValidateRequest(txType, amount); err != nil {
		return models.Transaction{}, err
	}
	if err := authz.Authorize(authz.ActionCreateTransaction, authz.Identity{UserID: userID}); err != nil {
		return models.Transaction{}, err
	}

	t, err := s.storage.Transaction().CreateTransaction(ctx, models.Transaction{
		UserID: userID,
		Type:   txType,
		Amount: amount,
		Status: models.TransactionStatusPending,
	})
	if err != nil {
		return t, apperrors.AtStep("write transaction", err)
	}

	metrics.RecordTransactionRequest(txType)
	return t, nil
}

// Transactions of the user, newest first
func (s *LedgerService) ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	if err := authz.Authorize(authz.ActionListOwnTransactions, authz.Identity{UserID: userID}); err != nil {
		return nil, err
	}

	transactions, err := s.storage.Transaction().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.AtStep("list transactions", err)
	}
	return transactions, nil
}

// Transactions of all users annotated with owner display names, newest first
// Allowed to admins only
func (s *LedgerService) ListAll(ctx context.Context, callerID uuid.UUID) ([]models.Transaction, error) {
	caller, err := s.storage.Profile().GetProfile(ctx, callerID, false)
	if err != nil {
		return nil, apperrors.AtStep("load caller", err)
	}
	if err := authz.Authorize(authz.ActionListAllTransactions, authz.IdentityOf(caller)); err != nil {
		return nil, err
	}

	transactions, err := s.storage.Transaction().ListAll(ctx)
	if err != nil {
		return nil, apperrors.AtStep("list transactions", err)
	}

	ids := make([]uuid.UUID, 0, len(transactions))
	seen := make(map[uuid.UUID]bool, len(transactions))
	for _, t := range transactions {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}

	names, err := s.storage.Profile().DisplayNames(ctx, ids)
	if err != nil {
		return nil, apperrors.AtStep("resolve names", err)
	}

	for i := range transactions {
		transactions[i].UserName = names[transactions[i].UserID]
	}

	return transactions, nil
}
