package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/authz"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/metrics"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

const defaultMaxAttempts = 3

type publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

type Config struct {
	// Attempts to apply approval when the profile is changed concurrently
	MaxAttempts int
}

type ApprovalService struct {
	storage     repository.Storage
	publisher   publisher
	logger      logger.Logger
	maxAttempts int
}

func NewService(cfg Config, storage repository.Storage, publisher publisher, l logger.Logger) *ApprovalService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	return &ApprovalService{
		storage:     storage,
		publisher:   publisher,
		logger:      l,
		maxAttempts: cfg.MaxAttempts,
	}
}

type approved struct {
	transaction  models.Transaction
	notification models.Notification
}

// Approve pending transaction and apply it to the owner balance
//
// Profile, transaction and notification are written in one db transaction.
// Concurrent balance writes for the same owner are detected by the profile version
// and the whole db transaction is retried.
func (s *ApprovalService) Approve(ctx context.Context, transactionID uuid.UUID, approverID uuid.UUID) (models.Transaction, error) {
	approver, err := s.storage.Profile().GetProfile(ctx, approverID, false)
	if err != nil {
		return models.Transaction{}, apperrors.AtStep("load approver", err)
	}
	if err := authz.Authorize(authz.ActionApproveTransaction, authz.IdentityOf(approver)); err != nil {
		metrics.RecordApproval("", metrics.ResultForbidden)
		return models.Transaction{}, err
	}

	var result approved
	for attempt := 1; ; attempt++ {
		var stepErr error
		err = s.storage.InTx(ctx, func(storage repository.Storage) error {
			result, stepErr = approveOnce(ctx, storage, transactionID)
			return stepErr
		})
		// Steps annotate their own errors, only begin and commit failures are left
		if err != nil && stepErr == nil {
			err = apperrors.AtStep("commit", err)
		}

		if !errors.Is(err, apperrors.ErrProfileConflict) || attempt >= s.maxAttempts {
			break
		}

		metrics.RecordApprovalConflict()
		s.logger.Warn("profile changed concurrently, retrying approval",
			"transaction_id", transactionID,
			"attempt", attempt,
		)
	}
	if err != nil {
		metrics.RecordApproval(result.transaction.Type, resultOf(err))
		return models.Transaction{}, err
	}

	s.logger.Info("transaction approved",
		"transaction_id", result.transaction.ID,
		"user_id", result.transaction.UserID,
		"approver_id", approverID,
		"type", result.transaction.Type,
		"amount", result.transaction.Amount.StringFixed(2),
	)
	metrics.RecordApproval(result.transaction.Type, metrics.ResultApproved)

	// Realtime delivery is best effort, the notification is stored already
	if err := s.publisher.Publish(ctx, result.notification); err != nil {
		s.logger.Warn("can't publish notification", "notification_id", result.notification.ID, "error", err)
	}

	return result.transaction, nil
}

func approveOnce(ctx context.Context, storage repository.Storage, transactionID uuid.UUID) (approved, error) {
	var res approved

	t, err := storage.Transaction().GetTransaction(ctx, transactionID, true)
	if err != nil {
		return res, apperrors.AtStep("load transaction", err)
	}
	res.transaction = t
	if t.Status != models.TransactionStatusPending {
		return res, apperrors.AtStep("load transaction", apperrors.ErrTransactionNotPending)
	}

	// Lock serializes approvals of one owner, the version check stays for writers outside approval
	profile, err := storage.Profile().GetProfile(ctx, t.UserID, true)
	if err != nil {
		return res, apperrors.AtStep("load profile", err)
	}

	profile, err = applyTransaction(profile, t)
	if err != nil {
		return res, err
	}

	// Balance first, so completed status is never seen with stale balance
	if _, err := storage.Profile().UpdateBalance(ctx, profile); err != nil {
		return res, apperrors.AtStep("write profile", err)
	}

	res.transaction, err = storage.Transaction().Complete(ctx, t.ID)
	if err != nil {
		return res, apperrors.AtStep("write transaction", err)
	}

	res.notification, err = storage.Notification().CreateNotification(ctx, approvalNotification(t))
	if err != nil {
		return res, apperrors.AtStep("write notification", err)
	}

	return res, nil
}

// Apply completed transaction to profile balance and counters
func applyTransaction(p models.Profile, t models.Transaction) (models.Profile, error) {
	switch t.Type {
	case models.TransactionTypeDeposit:
		p.Balance = p.Balance.Add(t.Amount)
		p.TotalDeposits = p.TotalDeposits.Add(t.Amount)
		if p.Balance.GreaterThan(models.MaxAmount) || p.TotalDeposits.GreaterThan(models.MaxAmount) {
			return p, apperrors.ErrBalanceLimit
		}
	case models.TransactionTypeWithdraw:
		balance := p.Balance.Sub(t.Amount)
		if balance.IsNegative() {
			return p, apperrors.ErrBalanceInsufficient
		}
		p.Balance = balance
		p.TotalWithdrawals = p.TotalWithdrawals.Add(t.Amount)
	default:
		return p, apperrors.ErrTransactionTypeInvalid
	}

	return p, nil
}

func approvalNotification(t models.Transaction) models.Notification {
	return models.Notification{
		UserID:  t.UserID,
		Title:   "Transaction approved",
		Message: fmt.Sprintf("Your %s of %s has been approved", t.Type, t.Amount.StringFixed(2)),
		Type:    models.NotificationTypeTransactionApproved,
	}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidState):
		return metrics.ResultNotPending
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return metrics.ResultInsufficient
	case errors.Is(err, apperrors.ErrConflict):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}
