package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/sharefin/internal/handlers/middleware"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/models"
)

const (
	defaultAuthRate  = 5
	defaultAuthBurst = 10
	visitorTTL       = 3 * time.Minute
)

type Config struct {
	// Requests per second allowed to register, login and refresh from one IP
	AuthRate  float64
	AuthBurst int
}

type Services struct {
	Auth         authService
	Profile      profileService
	Ledger       ledgerService
	Approval     approvalService
	Support      supportService
	Notification notificationService
}

func NewRouter(cfg Config, s Services, l logger.Logger) http.Handler {
	if cfg.AuthRate <= 0 {
		cfg.AuthRate = defaultAuthRate
	}
	if cfg.AuthBurst <= 0 {
		cfg.AuthBurst = defaultAuthBurst
	}
	limiter := middleware.NewRateLimiter(cfg.AuthRate, cfg.AuthBurst, visitorTTL)
	withAuth := middleware.AuthMiddleware(s.Auth)

	// No RealIP: forwarded headers are client controlled and the limiter keys on the socket address
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		middleware.LoggerMiddleware(l),
		middleware.MetricsMiddleware,
		chimw.Recoverer,
	)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware(limiter))
			r.Method(http.MethodPost, "/register", handleRegister(s.Auth, l))
			r.Method(http.MethodPost, "/login", handleLogin(s.Auth, l))
			r.Method(http.MethodPost, "/refresh", handleTokenRefresh(s.Auth, l))
		})
		r.Method(http.MethodPost, "/logout", handleLogout(s.Auth, l))

		r.Group(func(r chi.Router) {
			r.Use(withAuth)
			r.Method(http.MethodGet, "/me", handleUserMe(s.Profile, l))
			r.Method(http.MethodGet, "/profile", handleGetProfile(s.Profile, l))
			r.Method(http.MethodPatch, "/profile", handleUpdateProfile(s.Profile, l))
			r.Method(http.MethodGet, "/transactions", handleListOwnTransactions(s.Ledger, l))
			r.Method(http.MethodPost, "/transactions", handleCreateTransaction(s.Ledger, l))
			r.Method(http.MethodGet, "/tickets", handleListTickets(s.Support, l))
			r.Method(http.MethodPost, "/tickets", handleCreateTicket(s.Support, l))
			r.Method(http.MethodGet, "/notifications", handleListNotifications(s.Notification, l))
			r.Method(http.MethodPost, "/notifications/{id}/read", handleMarkNotificationRead(s.Notification, l))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(withAuth)
		r.Method(http.MethodGet, "/transactions", handleListAllTransactions(s.Ledger, l))
		r.Method(http.MethodPost, "/transactions/{id}/approve", handleApproveTransaction(s.Approval, l))
	})

	return r
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string, fullName string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password is wrong
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke refresh token, unknown tokens are ignored
	Logout(ctx context.Context, refresh string) error

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	UnsetRefreshCookie(w http.ResponseWriter)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type profileService interface {
	Get(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpdateDetails(ctx context.Context, userID uuid.UUID, d models.ProfileDetails) (models.Profile, error)
}

type ledgerService interface {
	Create(ctx context.Context, userID uuid.UUID, txType string, amount decimal.Decimal) (models.Transaction, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListAll(ctx context.Context, callerID uuid.UUID) ([]models.Transaction, error)
}

type approvalService interface {
	Approve(ctx context.Context, transactionID uuid.UUID, approverID uuid.UUID) (models.Transaction, error)
}

type supportService interface {
	CreateTicket(ctx context.Context, userID uuid.UUID, subject string, description string, priority string) (models.SupportTicket, error)
	ListTickets(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error)
}

type notificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Notification, error)
}
