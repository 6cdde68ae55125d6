package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/testutil"
)

func Test_NotificationRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	approved := func(userID uuid.UUID) models.Notification {
		return models.Notification{
			UserID:  userID,
			Title:   "Transaction approved",
			Message: "Your deposit of 10.00 was approved",
			Type:    models.NotificationTypeTransactionApproved,
		}
	}

	t.Run("create and list", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NotificationRepo{DB: tx}
			p := createProfile(t, tx, "alice", "")

			first, err := r.CreateNotification(t.Context(), approved(p.ID))
			require.NoError(t, err)
			second, err := r.CreateNotification(t.Context(), approved(p.ID))
			require.NoError(t, err)

			got, err := r.ListNotifications(t.Context(), p.ID)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, second.ID, got[0].ID)
			assert.Equal(t, first.ID, got[1].ID)
			assert.False(t, got[0].Read)
		})
	})

	t.Run("mark read", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NotificationRepo{DB: tx}
			p := createProfile(t, tx, "alice", "")
			n, err := r.CreateNotification(t.Context(), approved(p.ID))
			require.NoError(t, err)

			got, err := r.MarkRead(t.Context(), p.ID, n.ID)

			require.NoError(t, err)
			assert.True(t, got.Read)
		})
	})

	t.Run("mark read of other user", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := NotificationRepo{DB: tx}
			alice := createProfile(t, tx, "alice", "")
			bob := createProfile(t, tx, "bob", "")
			n, err := r.CreateNotification(t.Context(), approved(alice.ID))
			require.NoError(t, err)

			_, err = r.MarkRead(t.Context(), bob.ID, n.ID)

			require.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
		})
	})
}
