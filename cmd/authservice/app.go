package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/authservice/internal/db"
	"github.com/nkiryanov/authservice/internal/handlers"
	"github.com/nkiryanov/authservice/internal/handlers/middleware"
	"github.com/nkiryanov/authservice/internal/logger"
	"github.com/nkiryanov/authservice/internal/repository/postgres"
	"github.com/nkiryanov/authservice/internal/service/auth"
	"github.com/nkiryanov/authservice/internal/service/email"
	"github.com/nkiryanov/authservice/internal/service/identity"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}
	refreshRepo := &postgres.RefreshTokenRepo{DB: pool}

	// Initialize services
	signer, err := auth.NewSigner(auth.JwtOptions{
		Key:       c.JwtKey,
		Issuer:    c.JwtIssuer,
		Audiences: c.JwtAudiences,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token signer. Err: %w", err)
	}

	tokenService, err := auth.NewTokenService(signer, refreshRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating token service. Err: %w", err)
	}

	identityManager, err := identity.NewManager(identity.ManagerConfig{}, userRepo, identity.NewPurposeTokenStore(rdb))
	if err != nil {
		return nil, fmt.Errorf("error while creating identity manager. Err: %w", err)
	}

	emailClient := email.NewClient(c.EmailAPIURL, c.EmailAPIToken, l)

	// Initialize handlers
	authHandler := handlers.NewAuth(identityManager, tokenService, emailClient, c.AppURL, l)

	mux := handlers.NewRouter(
		authHandler,
		middleware.LoggerMiddleware(l),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
