package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/config"
	"budget-tracker/internal/handlers"
	"budget-tracker/internal/ledger"
	"budget-tracker/internal/log"
	"budget-tracker/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: log.ComponentApp})
	log.SetDefault(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", log.Err(err)...)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	authSvc := auth.NewService(db, cfg.SessionDuration)
	ledgerSvc := ledger.NewService(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrapAdmin(ctx, cfg, authSvc, db, logger); err != nil {
		return err
	}

	h := handlers.NewHandlers(authSvc, ledgerSvc, db, handlers.Options{
		PageSize:     cfg.PageSize,
		SecureCookie: cfg.Production(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go purgeSessions(ctx, db, cfg.SessionPurge, logger.WithComponent(log.ComponentSession))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", log.FieldOperation, log.OpStartup,
			"port", cfg.Port, "env", cfg.Env, "db_path", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received", log.FieldOperation, log.OpShutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped", log.FieldOperation, log.OpShutdown)
	return nil
}

// setupRouter registers every route. Routes behind AuthMiddleware answer 401
// without a valid session cookie.
func setupRouter(h *handlers.Handlers, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /categories", h.Categories)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("/", h.NotFound)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("GET /auth/me", protected(h.Me))
	mux.Handle("GET /dashboard", protected(h.Dashboard))
	mux.Handle("GET /transactions", protected(h.ListTransactions))
	mux.Handle("POST /transactions", protected(h.CreateTransaction))
	mux.Handle("GET /transactions/{id}", protected(h.GetTransaction))
	mux.Handle("PUT /transactions/{id}", protected(h.UpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", protected(h.DeleteTransaction))
	mux.Handle("GET /statistics", protected(h.Statistics))

	return log.Middleware(logger)(handlers.Recover(mux))
}

type userCounter interface {
	UserCount(ctx context.Context) (int, error)
}

// bootstrapAdmin creates the configured admin account when the database has no users.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, authSvc *auth.Service, db userCounter, logger *log.Logger) error {
	if cfg.AdminUser == "" {
		return nil
	}

	count, err := db.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, err := authSvc.Register(ctx, auth.Registration{
		Username: cfg.AdminUser,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.WithComponent(log.ComponentAuth).Info("admin user created",
		log.FieldOperation, log.OpRegister, log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return nil
}

type sessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

func purgeSessions(ctx context.Context, db sessionCleaner, every time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanExpiredSessions(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("purge expired sessions failed", log.Err(err)...)
				}
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", log.FieldOperation, log.OpPurge, log.FieldCount, n)
			}
		}
	}
}
