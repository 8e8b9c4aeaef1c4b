package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"vibeauth/internal/api"
	"vibeauth/internal/auth"
	"vibeauth/internal/config"
	"vibeauth/internal/logging"
	"vibeauth/internal/password"
	"vibeauth/internal/session"
	"vibeauth/internal/store"
	"vibeauth/internal/totp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().StringP("port", "p", "", "Listen port (overrides PORT)")
	cmd.Flags().String("store", "", "Store backend: memory, file, sqlite or mongo (overrides STORE_BACKEND)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}

	logger := logging.New(os.Stdout, cfg.Log.Level)

	// Create a context for initialization.
	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := store.Open(initCtx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := users.Close(ctx); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	hasher, err := password.New(password.Scheme(cfg.Auth.PasswordScheme), cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	sessions := session.NewManager(cfg.Auth.SessionTTL)
	svc := auth.NewService(
		users,
		sessions,
		hasher,
		totp.New(totp.WithWindow(cfg.Auth.OTPWindow)),
		auth.Config{
			Issuer:         cfg.Auth.Issuer,
			MaxOTPFailures: cfg.Auth.OTPMaxFailures,
			OTPLockout:     cfg.Auth.OTPLockout,
		},
		logger,
	)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Server.SweepSchedule, func() {
		if n := svc.SweepSessions(context.Background()); n > 0 {
			logger.Debug(context.Background(), "expired sessions removed", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("invalid session sweep schedule %q: %w", cfg.Server.SweepSchedule, err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	var handler http.Handler = api.NewRouter(svc, logger, cfg.Server.RequestTimeout)
	if len(cfg.Server.CORSOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.Server.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(handler)
	}
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
	handler = handlers.LoggingHandler(os.Stdout, handler)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Handler:      handler,
		Addr:         addr,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "server listening", "addr", addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signals for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info(context.Background(), "shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
