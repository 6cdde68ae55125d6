package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

type Config struct {
	// Header to send and read access token
	AccessHeaderName string

	// Auth scheme of the access header value, e.g. 'Bearer <token>'
	AccessAuthScheme string

	// Cookie to keep refresh token
	RefreshCookieName string
}

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	Revoke(ctx context.Context, refresh string) error
	ParseAccess(ctx context.Context, access string) (tokenmanager.Claims, error)
}

type userService interface {
	CreateUser(ctx context.Context, username string, password string, fullName string) (models.User, error)
	Login(ctx context.Context, username string, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type AuthService struct {
	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string

	tokenManager tokenManager
	userService  userService
}

func NewService(cfg Config, tokenManager tokenManager, userService userService) (*AuthService, error) {
	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefault(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
		tokenManager:      tokenManager,
		userService:       userService,
	}, nil
}

// Register user with profile and issue the first token pair
func (s *AuthService) Register(ctx context.Context, username string, password string, fullName string) (models.TokenPair, error) {
	user, err := s.userService.CreateUser(ctx, username, password, fullName)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.userService.Login(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

// Exchange refresh token to a new pair
// The refresh token is single use
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.tokenManager.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userService.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh token owner is unknown. Err: %w", err)
	}

	return s.generatePair(ctx, user)
}

// Revoke refresh token, repeated logout is not an error
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokenManager.Revoke(ctx, refresh)
}

func (s *AuthService) generatePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := s.tokenManager.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}
	return pair, nil
}

// Set access token to header and refresh token to http only cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		Expires:  pair.Refresh.ExpiresAt,
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Ask client to drop refresh cookie
func (s *AuthService) UnsetRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

// Authenticate request by access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)

	scheme, access, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.User{}, apperrors.ErrSessionMissing
	}

	claims, err := s.tokenManager.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userService.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return user, fmt.Errorf("token owner is gone: %w", apperrors.ErrSessionMissing)
	}
	return user, err
}
