package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const refreshTokenColumns = `id, user_id, token, created_at, expires_at, used_at`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	const saveToken = `
	INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + refreshTokenColumns

	rows, _ := r.DB.Query(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

// Get token
// It returns the token even it expired or used already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	const getToken = `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1`

	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

// Mark token used and return it
// The row is locked so concurrent exchanges of the same token see each other
func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	const markUsed = `
	WITH current AS (
		SELECT id, used_at AS prev_used_at FROM refresh_tokens WHERE token = $1 FOR UPDATE
	)
	UPDATE refresh_tokens rt
	SET used_at = COALESCE(rt.used_at, NOW())
	FROM current
	WHERE rt.id = current.id
	RETURNING rt.id, rt.user_id, rt.token, rt.created_at, rt.expires_at, rt.used_at, current.prev_used_at IS NOT NULL
	`

	var alreadyUsed bool
	var token models.RefreshToken
	err := r.DB.QueryRow(ctx, markUsed, tokenString).Scan(
		&token.ID, &token.UserID, &token.Token, &token.CreatedAt, &token.ExpiresAt, &token.UsedAt, &alreadyUsed,
	)

	switch {
	case err == nil && !alreadyUsed:
		return token, nil
	case err == nil:
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
	return t, err
}
