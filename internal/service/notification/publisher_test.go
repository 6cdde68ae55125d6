package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/models"
)

func TestRedisPublisher(t *testing.T) {
	n := models.Notification{
		ID:        uuid.New(),
		UserID:    uuid.MustParse("6f1c1c5e-2d4b-4c55-9a57-0f3a8c0b1d2e"),
		Title:     "Transaction approved",
		Message:   "Your deposit of 500.00 has been approved",
		Type:      models.NotificationTypeTransactionApproved,
		CreatedAt: time.Now(),
	}

	t.Run("publish to user channel", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.Regexp().ExpectPublish("notifications:6f1c1c5e-2d4b-4c55-9a57-0f3a8c0b1d2e", `"type":"transaction_approved"`).SetVal(1)

		err := NewRedisPublisher(db).Publish(t.Context(), n)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("publish error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.Regexp().ExpectPublish(Channel(n.UserID), `.*`).SetErr(errors.New("connection refused"))

		err := NewRedisPublisher(db).Publish(t.Context(), n)

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, NopPublisher{}.Publish(t.Context(), models.Notification{}))
}
