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

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/volleychamp/volleychamp-api/config"
	"github.com/volleychamp/volleychamp-api/db"
	"github.com/volleychamp/volleychamp-api/handlers"
	"github.com/volleychamp/volleychamp-api/live"
	"github.com/volleychamp/volleychamp-api/repositories"
	api "github.com/volleychamp/volleychamp-api/routes"
	"github.com/volleychamp/volleychamp-api/services"
	"github.com/volleychamp/volleychamp-api/session"
	"github.com/volleychamp/volleychamp-api/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", slog.Any("error", err))
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("redis connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 export archiving enabled")
	} else {
		logger.Info("R2 not configured, export archiving disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()

	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	tournoiRepo := repositories.NewPostgresTournoiRepository(dbConn)
	declarationRepo := repositories.NewPostgresDeclarationRepository(dbConn)
	candidatureRepo := repositories.NewPostgresCandidatureRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)

	guard := session.NewGuard(redisClient, logger)

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, logger)
	clubService := services.NewClubService(clubRepo, logger)
	tournoiService := services.NewTournoiService(tournoiRepo, clubRepo, declarationRepo, logger)
	declarationService := services.NewDeclarationService(declarationRepo, tournoiRepo, clubRepo, hub, logger)
	candidatureService := services.NewCandidatureService(dbConn, candidatureRepo, tournoiRepo, clubRepo, hub, logger)
	dashboardService := services.NewDashboardService(tournoiRepo, candidatureRepo, declarationRepo, logger)
	exportService := services.NewExportService(declarationService, uploader, logger)

	homeHandler := handlers.NewHomeHandler(dashboardService)
	authHandler := handlers.NewAuthHandler(authService)
	tournoiHandler := handlers.NewTournoiHandler(tournoiService)
	declarationHandler := handlers.NewDeclarationHandler(declarationService, tournoiService, guard)
	candidatureHandler := handlers.NewCandidatureHandler(candidatureService, tournoiService, guard)
	clubHandler := handlers.NewClubHandler(clubService)
	staffHandler := handlers.NewStaffHandler(dashboardService, declarationService, exportService)
	liveHandler := handlers.NewLiveHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.CORSAllowedOrigins,
		homeHandler,
		authHandler,
		tournoiHandler,
		declarationHandler,
		candidatureHandler,
		clubHandler,
		staffHandler,
		liveHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
