package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/boulodrome/clubhouse/api"
	"github.com/boulodrome/clubhouse/auth"
	"github.com/boulodrome/clubhouse/config"
	"github.com/boulodrome/clubhouse/csrf"
	"github.com/boulodrome/clubhouse/keyring"
	"github.com/boulodrome/clubhouse/storage"
	bboltstorage "github.com/boulodrome/clubhouse/storage/bbolt"
	memorystorage "github.com/boulodrome/clubhouse/storage/memory"
	postgresstorage "github.com/boulodrome/clubhouse/storage/postgres"
)

var listenAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the club backend server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger := buildLogger(cfg)

		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		keys, err := keyring.New(keyring.Config{
			AuthSecret: cfg.AuthSecret,
			CSRFSecret: cfg.CSRFSecret,
			KDFProfile: cfg.KDFProfile,
		})
		if err != nil {
			return fmt.Errorf("failed to build keyring: %w", err)
		}
		defer keys.Destroy()

		opts := []api.Option{
			api.WithLogger(logger),
			api.WithAlertFunc(func(e api.AlertEvent) {
				logger.Warn("security alert",
					"type", e.Type,
					"message", e.Message,
					"count", e.Count,
				)
			}),
		}
		if cfg.AuditWebhookURL != "" {
			opts = append(opts, api.WithAuditWebhook(cfg.AuditWebhookURL, cfg.AuditWebhookAuth))
		}

		a := api.New(cfg, store, auth.NewTokenService(keys), csrf.NewEngine(keys), opts...)
		defer a.Close()

		r := chi.NewRouter()
		r.Use(chimiddleware.Logger)
		r.Use(chimiddleware.Recoverer)
		r.Use(api.SecurityHeaders)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if cfg.TLSCert != "" {
				err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on %s (env: %s, store: %s)...\n", cfg.ListenAddr, cfg.Env, cfg.StoreBackend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// buildLogger constructs the process logger per config. Audit events from
// the api package flow through it as well.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore builds the configured member repository. The returned closer is
// a no-op for the memory backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.Repository, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return memorystorage.NewRepository(), func() {}, nil
	case "bbolt":
		store, err := bboltstorage.NewRepositoryFromFile(cfg.StorePath, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open member storage: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		store, err := postgresstorage.NewRepositoryFromDSN(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store_backend %q", cfg.StoreBackend)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address, overrides the configured listen_addr")
}
