package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
	"github.com/nkiryanov/sharefin/internal/repository/postgres"
	"github.com/nkiryanov/sharefin/internal/testutil"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		txType  string
		amount  string
		wantErr error
	}{
		{"deposit ok", models.TransactionTypeDeposit, "500", nil},
		{"withdraw with cents", models.TransactionTypeWithdraw, "0.01", nil},
		{"zero", models.TransactionTypeDeposit, "0", apperrors.ErrAmountNotPositive},
		{"negative", models.TransactionTypeDeposit, "-10", apperrors.ErrAmountNotPositive},
		{"fraction of cent", models.TransactionTypeDeposit, "1.001", apperrors.ErrAmountPrecision},
		{"largest stored amount", models.TransactionTypeDeposit, "9999999999999.99", nil},
		{"too large", models.TransactionTypeDeposit, "10000000000000", apperrors.ErrAmountTooLarge},
		{"unknown type", "transfer", "10", apperrors.ErrTransactionTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.txType, decimal.RequireFromString(tt.amount))

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestLedger(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(s *LedgerService, storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage), storage)
		})
	}

	createProfile := func(t *testing.T, storage repository.Storage, username string, fullName string, isAdmin bool) models.Profile {
		u, err := storage.User().CreateUser(t.Context(), username, "hashed")
		require.NoError(t, err)
		p, err := storage.Profile().CreateProfile(t.Context(), u.ID, fullName)
		require.NoError(t, err)
		if isAdmin {
			require.NoError(t, storage.Profile().SetAdmin(t.Context(), u.ID, true))
		}
		return p
	}

	t.Run("create pending", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			p := createProfile(t, storage, "alice", "", false)

			got, err := s.Create(t.Context(), p.ID, models.TransactionTypeDeposit, decimal.NewFromInt(500))

			require.NoError(t, err)
			assert.Equal(t, models.TransactionStatusPending, got.Status)

			profile, err := storage.Profile().GetProfile(t.Context(), p.ID, false)
			require.NoError(t, err)
			assert.True(t, profile.Balance.IsZero(), "request must not change balance")
		})
	})

	t.Run("create invalid persists nothing", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			p := createProfile(t, storage, "alice", "", false)

			_, err := s.Create(t.Context(), p.ID, models.TransactionTypeDeposit, decimal.Zero)
			require.ErrorIs(t, err, apperrors.ErrValidation)

			own, err := s.ListOwn(t.Context(), p.ID)
			require.NoError(t, err)
			assert.Empty(t, own)
		})
	})

	t.Run("create for unknown user is store error", func(t *testing.T) {
		inTx(t, func(s *LedgerService, _ repository.Storage) {
			_, err := s.Create(t.Context(), uuid.New(), models.TransactionTypeDeposit, decimal.NewFromInt(1))

			require.ErrorIs(t, err, apperrors.ErrRemoteStore)
			var storeErr *apperrors.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, "write transaction", storeErr.Step)
		})
	})

	t.Run("list own newest first", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			p := createProfile(t, storage, "alice", "", false)
			first, err := s.Create(t.Context(), p.ID, models.TransactionTypeDeposit, decimal.NewFromInt(1))
			require.NoError(t, err)
			second, err := s.Create(t.Context(), p.ID, models.TransactionTypeWithdraw, decimal.NewFromInt(2))
			require.NoError(t, err)

			own, err := s.ListOwn(t.Context(), p.ID)

			require.NoError(t, err)
			require.Len(t, own, 2)
			assert.Equal(t, second.ID, own[0].ID)
			assert.Equal(t, first.ID, own[1].ID)
			assert.Empty(t, own[0].UserName)
		})
	})

	t.Run("list all by admin resolves names", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			admin := createProfile(t, storage, "root", "", true)
			alice := createProfile(t, storage, "alice", "Alice Liddell", false)
			bob := createProfile(t, storage, "bob", "", false)
			_, err := s.Create(t.Context(), alice.ID, models.TransactionTypeDeposit, decimal.NewFromInt(1))
			require.NoError(t, err)
			_, err = s.Create(t.Context(), bob.ID, models.TransactionTypeDeposit, decimal.NewFromInt(2))
			require.NoError(t, err)
			_, err = s.Create(t.Context(), alice.ID, models.TransactionTypeWithdraw, decimal.NewFromInt(3))
			require.NoError(t, err)

			all, err := s.ListAll(t.Context(), admin.ID)

			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "Alice Liddell", all[0].UserName)
			assert.Equal(t, "bob", all[1].UserName)
			assert.Equal(t, "Alice Liddell", all[2].UserName)
		})
	})

	t.Run("list all by user is forbidden", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			alice := createProfile(t, storage, "alice", "", false)

			_, err := s.ListAll(t.Context(), alice.ID)

			require.ErrorIs(t, err, apperrors.ErrForbidden)
		})
	})
}
