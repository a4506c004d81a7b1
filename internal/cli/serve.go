package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/api"
	"github.com/facturaIA/invoice-ai-service/internal/ai"
	"github.com/facturaIA/invoice-ai-service/internal/auth"
	"github.com/facturaIA/invoice-ai-service/internal/config"
	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/docstore"
	"github.com/facturaIA/invoice-ai-service/internal/logging"
	"github.com/facturaIA/invoice-ai-service/internal/mail"
	"github.com/facturaIA/invoice-ai-service/internal/storage"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("store ready", zap.String("driver", store.Driver()))

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	assistant := ai.NewAssistant(provider, ai.Options{
		Timeout:  cfg.AI.Timeout,
		Retries:  cfg.AI.Retries,
		Currency: cfg.Invoice.Currency,
	}, logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Config:    cfg,
		Store:     store,
		Assistant: assistant,
		Tokens:    tokens,
		Logger:    logger,
	}

	// Optional collaborators: the API answers 503 for their routes when absent
	if cfg.StorageEnabled() {
		archive, err := storage.NewArchive(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("MinIO storage not available, PDF archive disabled", zap.Error(err))
		} else {
			deps.Archive = archive
			logger.Info("MinIO storage initialized", zap.String("bucket", cfg.Storage.Bucket))
		}
	}
	if cfg.MailEnabled() {
		deps.Mailer = mail.NewSendGridClient(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName, logger)
	}

	handler := api.NewHandler(deps)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Server(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// AI calls may take the full timeout plus a retry
		WriteTimeout: 2*cfg.AI.Timeout*time.Duration(cfg.AI.Retries+1) + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting invoice API",
			zap.String("addr", server.Addr),
			zap.String("version", version),
			zap.String("ai_provider", assistant.ProviderName()),
			zap.Bool("storage", deps.Archive != nil),
			zap.Bool("mail", deps.Mailer != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		store, err := docstore.Open(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Bootstrap(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return db.NewPostgres(pool), nil
	}
}
