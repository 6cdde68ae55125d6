package tokenmanager

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

const (
	Issuer = "sharefin"

	defaultAlg        = "HS256"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims of the access token
// Username lets clients show who is signed in without an extra request
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"name"`
}

type Config struct {
	// Required
	SecretKey string

	// HMAC algorithm, HS256 if empty
	Alg string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type refreshStorage interface {
	Refresh() repository.RefreshTokenRepo
}

// Issues signed access tokens and single use refresh tokens
type TokenManager struct {
	key        []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	storage    refreshStorage

	now func() time.Time
}

func New(cfg Config, storage refreshStorage) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if cfg.Alg == "" {
		cfg.Alg = defaultAlg
	}
	method, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing method %q, HMAC required", cfg.Alg)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		storage:    storage,
		now:        time.Now,
	}, nil
}

// Issue access token and persist a new refresh token of the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	now := m.now().Truncate(time.Second)
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	access, err := jwt.NewWithClaims(m.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
		UserID:   user.ID,
		Username: user.Username,
	}).SignedString(m.key)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't sign access token. Err: %w", err)
	}

	refresh, err := m.storage.Refresh().Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     rand.Text(),
		CreatedAt: now,
		ExpiresAt: refreshExp,
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't save refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExp},
		Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refreshExp},
	}, nil
}

// Mark refresh token used and return it
// Used and expired tokens are rejected
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.storage.Refresh().GetAndMarkUsed(ctx, refresh)
	if err != nil {
		return token, fmt.Errorf("can't use refresh token: %w", err)
	}
	if token.Expired(m.now()) {
		return token, fmt.Errorf("can't use refresh token: %w", apperrors.ErrRefreshTokenExpired)
	}
	return token, nil
}

// Make refresh token unusable
// Tokens already unusable are not an error
func (m *TokenManager) Revoke(ctx context.Context, refresh string) error {
	_, err := m.storage.Refresh().GetAndMarkUsed(ctx, refresh)
	switch {
	case err == nil,
		errors.Is(err, apperrors.ErrRefreshTokenNotFound),
		errors.Is(err, apperrors.ErrRefreshTokenIsUsed):
		return nil
	default:
		return fmt.Errorf("can't revoke refresh token: %w", err)
	}
}

// Verify access token signature, issuer and expiration
func (m *TokenManager) ParseAccess(_ context.Context, access string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(access, &claims,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid access token: %w: %w", apperrors.ErrUnauthenticated, err)
	}
	if claims.UserID == uuid.Nil {
		return Claims{}, fmt.Errorf("access token has no user: %w", apperrors.ErrUnauthenticated)
	}
	return claims, nil
}
