package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	token := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "secret-token",
		CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
		ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
	}

	t.Run("save token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Token, got.Token)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, 0)
			require.Nil(t, got.UsedAt)
		})
	})

	t.Run("get token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.UserID, got.UserID)
			require.Nil(t, got.UsedAt)
		})
	})

	t.Run("get not existed token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Get(t.Context(), "unknown")

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})
	})

	t.Run("mark token used", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.GetAndMarkUsed(t.Context(), token.Token)

			require.NoError(t, err)
			require.NotNil(t, got.UsedAt)
			require.WithinDuration(t, time.Now(), *got.UsedAt, 2*time.Second)
			require.Equal(t, token.UserID, got.UserID)
		})
	})

	t.Run("mark used not existed token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.GetAndMarkUsed(t.Context(), token.Token)

			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("mark used keeps first usage time", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			first, err := repo.GetAndMarkUsed(t.Context(), token.Token)
			require.NoError(t, err)

			second, err := repo.GetAndMarkUsed(t.Context(), token.Token)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)

			assert.WithinDuration(t, *first.UsedAt, *second.UsedAt, 0)
		})
	})
}
