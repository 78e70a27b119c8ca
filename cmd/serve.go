package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/beach-tennis-live/config"
	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/Dosada05/beach-tennis-live/handlers"
	"github.com/Dosada05/beach-tennis-live/live"
	"github.com/Dosada05/beach-tennis-live/middleware"
	"github.com/Dosada05/beach-tennis-live/routes"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/Dosada05/beach-tennis-live/session"
	"github.com/Dosada05/beach-tennis-live/storage"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 15 * time.Second
	limiterIdle       = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func runServer(autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("change_feed", string(cfg.ChangeFeed)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	backend, err := openStore(cfg.DatabaseURL, db.ServerPool, clock, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()
	if autoMigrate && backend.conn != nil {
		if err := db.Migrate(ctx, backend.conn); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	// Хаб подписок и снимок кортов, из которого читает SetScore.
	hub := live.NewHub(backend.store, logger)
	if err := wireChangeFeed(ctx, cfg, backend, hub, logger); err != nil {
		return err
	}
	mirror, err := live.NewCourtMirror(ctx, hub, logger)
	if err != nil {
		return fmt.Errorf("failed to start court mirror: %w", err)
	}
	defer mirror.Close()

	var uploader storage.FileUploader
	r2 := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, r2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, player photo upload disabled")
	}

	// Инициализация сервисов
	authService := services.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecretKey, clock, logger)
	accessService := services.NewAccessService(backend.store, session.NewCodec(cfg.JWTSecretKey), clock, logger)
	courtService := services.NewCourtService(backend.store, mirror, services.RandomPin, logger)
	matchService := services.NewMatchService(backend.store, clock, logger)
	tournamentService := services.NewTournamentService(backend.store, services.RandomPin, logger)
	arenaService := services.NewArenaService(backend.store, logger)
	playerService := services.NewPlayerService(backend.store, uploader, logger)
	resultService := services.NewResultService(backend.store)
	logger.Info("services initialized")

	pinLimiter := middleware.NewIPLimiter(cfg.PinLoginRate, cfg.PinLoginBurst, limiterIdle)
	go func() {
		ticker := clock.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.Chan():
				pinLimiter.Cleanup(now)
			}
		}
	}()

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Arena:      handlers.NewArenaHandler(arenaService),
		Player:     handlers.NewPlayerHandler(playerService),
		Court:      handlers.NewCourtHandler(courtService, cfg.PublicBaseURL),
		Match:      handlers.NewMatchHandler(matchService),
		Result:     handlers.NewResultHandler(resultService),
		Referee:    handlers.NewRefereeHandler(accessService, courtService, matchService),
		WebSocket:  handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, logger),
	}, routes.Options{
		AuthService:    authService,
		AccessService:  accessService,
		PinLimiter:     pinLimiter,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
