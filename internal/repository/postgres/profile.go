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

type ProfileRepo struct {
	DB DBTX
}

const profileColumns = `id, full_name, avatar_url, kyc_status, is_admin,
	balance, total_earnings, total_deposits, total_withdrawals, version, created_at, updated_at`

func (r *ProfileRepo) CreateProfile(ctx context.Context, userID uuid.UUID, fullName string) (models.Profile, error) {
	const createProfile = `
	INSERT INTO profiles (id, full_name)
	VALUES ($1, $2)
	RETURNING ` + profileColumns

	rows, _ := r.DB.Query(ctx, createProfile, userID, fullName)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)
	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Profile, error) {
	getProfile := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if forUpdate {
		getProfile += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, getProfile, userID)
	return collectProfile(rows, apperrors.ErrProfileNotFound)
}

func (r *ProfileRepo) UpdateBalance(ctx context.Context, p models.Profile) (models.Profile, error) {
	const updateBalance = `
	UPDATE profiles
	SET balance = $3, total_earnings = $4, total_deposits = $5, total_withdrawals = $6,
		version = version + 1, updated_at = NOW()
	WHERE id = $1 AND version = $2
	RETURNING ` + profileColumns

	rows, _ := r.DB.Query(ctx, updateBalance,
		p.ID, p.Version, p.Balance, p.TotalEarnings, p.TotalDeposits, p.TotalWithdrawals,
	)
	return collectProfile(rows, apperrors.ErrProfileConflict)
}

func (r *ProfileRepo) UpdateDetails(ctx context.Context, userID uuid.UUID, d models.ProfileDetails) (models.Profile, error) {
	const updateDetails = `
	UPDATE profiles
	SET full_name = COALESCE($2, full_name), avatar_url = COALESCE($3, avatar_url), updated_at = NOW()
	WHERE id = $1
	RETURNING ` + profileColumns

	rows, _ := r.DB.Query(ctx, updateDetails, userID, d.FullName, d.AvatarURL)
	return collectProfile(rows, apperrors.ErrProfileNotFound)
}

func (r *ProfileRepo) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	const setAdmin = `UPDATE profiles SET is_admin = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.DB.Exec(ctx, setAdmin, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProfileNotFound
	}

	return nil
}

func (r *ProfileRepo) DisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	const displayNames = `
	SELECT p.id, COALESCE(NULLIF(p.full_name, ''), u.username)
	FROM profiles p
	JOIN users u ON u.id = p.id
	WHERE p.id = ANY($1)
	`

	names := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	rows, _ := r.DB.Query(ctx, displayNames, userIDs)
	var id uuid.UUID
	var name string
	_, err := pgx.ForEachRow(rows, []any{&id, &name}, func() error {
		names[id] = name
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return names, nil
}

func collectProfile(rows pgx.Rows, noRows error) (models.Profile, error) {
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, noRows
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.FullName, &p.AvatarURL, &p.KYCStatus, &p.IsAdmin,
		&p.Balance, &p.TotalEarnings, &p.TotalDeposits, &p.TotalWithdrawals,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
