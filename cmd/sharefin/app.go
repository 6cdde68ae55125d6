package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/sharefin/internal/db"
	"github.com/nkiryanov/sharefin/internal/handlers"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository/postgres"
	"github.com/nkiryanov/sharefin/internal/service/approval"
	"github.com/nkiryanov/sharefin/internal/service/auth"
	"github.com/nkiryanov/sharefin/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/sharefin/internal/service/ledger"
	"github.com/nkiryanov/sharefin/internal/service/notification"
	"github.com/nkiryanov/sharefin/internal/service/profile"
	"github.com/nkiryanov/sharefin/internal/service/support"
	"github.com/nkiryanov/sharefin/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}
	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Realtime notifications are optional
	var pub publisher = notification.NopPublisher{}
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		pub = notification.NewRedisPublisher(client)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.DefaultHasher, storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	promoted, err := userService.PromoteAdmins(ctx, c.AdminUsers)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while promoting admins. Err: %w", err)
	}
	if len(promoted) != len(c.AdminUsers) {
		l.Warn("some admin users are not registered yet", "configured", c.AdminUsers, "promoted", promoted)
	}

	app.Handler = handlers.NewRouter(handlers.Config{}, handlers.Services{
		Auth:         authService,
		Profile:      profile.NewService(storage),
		Ledger:       ledger.NewService(storage),
		Approval:     approval.NewService(approval.Config{}, storage, pub, l),
		Support:      support.NewService(storage),
		Notification: notification.NewService(storage),
	}, l)

	return app, nil
}

// Release connections in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
