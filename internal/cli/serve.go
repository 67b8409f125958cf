package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"mailmind/internal/ai"
	"mailmind/internal/config"
	"mailmind/internal/gmail"
	"mailmind/internal/handler"
	"mailmind/internal/logger"
	"mailmind/internal/router"
	"mailmind/internal/service"
	"mailmind/internal/sse"
	"mailmind/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newClassifier(cfg *config.Config, apiKey string, appLogger *logger.Logger) service.ClassificationService {
	aiClient := ai.NewAIClient(ai.Options{
		Provider: cfg.AIProvider,
		Model:    cfg.AIModel,
		BaseURL:  cfg.AIBaseURL,
	}, appLogger)

	return service.NewClassificationService(aiClient, service.ClassificationOptions{
		APIKey:     apiKey,
		BatchSize:  cfg.AIBatchSize,
		BatchDelay: cfg.AIBatchDelay,
	}, appLogger)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	appLogger := logger.New().SetLevel(logger.ParseLevel(cfg.LogLevel))

	stores, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	appLogger.Infof("using %s storage", stores.kind)

	if !cfg.AIEnabled() {
		appLogger.Warn("no AI key configured, using heuristic classification only")
	}

	authService := service.NewAuthService(stores.users, appLogger)
	inboxService := service.NewInboxService(
		store.NewRegistry(),
		stores.processed,
		newClassifier(cfg, cfg.AIAPIKey, appLogger),
		gmail.Factory(appLogger),
		service.InboxOptions{
			MaxResults:      cfg.MaxFetchEmails,
			FetchBatchSize:  cfg.FetchBatchSize,
			FetchBatchDelay: cfg.FetchBatchDelay,
		},
		appLogger,
	)

	sseManager := sse.NewSSEManager(appLogger)
	jobs := sse.NewJobTracker(sseManager, appLogger)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	sessionStore := handler.NewSessionStore([]byte(cfg.SessionSecret), cfg.IsProduction())
	authHandler := handler.NewAuthHandler(authService, inboxService, cfg, sessionStore, e.Logger)
	emailHandler := handler.NewEmailHandler(inboxService, authHandler, jobs, sseManager, e.Logger)
	router.SetupRoutes(e, authHandler, emailHandler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		jobs.Stop()
		sseManager.Close()
		if err := e.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shut down server:", err)
		}
	}()

	appLogger.Info("Starting server on port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
