package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors_Kinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{ErrAmountNotPositive, ErrValidation},
		{ErrTransactionTypeInvalid, ErrValidation},
		{ErrActionForbidden, ErrForbidden},
		{ErrSessionMissing, ErrUnauthenticated},
		{ErrTransactionNotFound, ErrNotFound},
		{ErrProfileNotFound, ErrNotFound},
		{ErrTransactionNotPending, ErrInvalidState},
		{ErrSessionLoading, ErrInvalidState},
		{ErrBalanceInsufficient, ErrInsufficientFunds},
		{ErrProfileConflict, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("service error: %w", tt.err)

			require.ErrorIs(t, wrapped, tt.kind)
			require.ErrorIs(t, wrapped, tt.err)
		})
	}
}

func TestErrors_Message(t *testing.T) {
	t.Run("well known", func(t *testing.T) {
		err := fmt.Errorf("load transaction: %w", ErrTransactionNotFound)

		require.Equal(t, "transaction not found", Message(err))
	})

	t.Run("unknown is hidden", func(t *testing.T) {
		require.Equal(t, "Internal server error", Message(errors.New("connection refused")))
	})
}

func TestErrors_AtStep(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		require.NoError(t, AtStep("write profile", nil))
	})

	t.Run("well known keeps kind", func(t *testing.T) {
		err := AtStep("load transaction", ErrTransactionNotPending)

		require.ErrorIs(t, err, ErrInvalidState)
		require.NotErrorIs(t, err, ErrRemoteStore)
		require.Contains(t, err.Error(), "load transaction")
	})

	t.Run("unknown becomes store error", func(t *testing.T) {
		cause := errors.New("connection reset by peer")

		err := AtStep("write profile", cause)

		require.ErrorIs(t, err, ErrRemoteStore)
		require.ErrorIs(t, err, cause)

		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		require.Equal(t, "write profile", storeErr.Step)
	})

	t.Run("store error keeps first step", func(t *testing.T) {
		err := AtStep("db transaction", AtStep("write transaction", errors.New("timeout")))

		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		require.Equal(t, "write transaction", storeErr.Step)
	})
}
