package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"roomdrop/internal/adapters/auth/jwt"
	"roomdrop/internal/adapters/handlers/http/chi"
	"roomdrop/internal/adapters/handlers/http/chi/v1/admin"
	"roomdrop/internal/adapters/handlers/http/chi/v1/room"
	"roomdrop/internal/adapters/registry/redis"
	"roomdrop/internal/adapters/repository/postgres"
	"roomdrop/internal/adapters/scheduler"
	"roomdrop/internal/adapters/storage/filesystem"
	"roomdrop/internal/adapters/storage/minio"
	"roomdrop/internal/config"
	"roomdrop/internal/core/port"
	"roomdrop/internal/core/service/cleanup"
	"roomdrop/internal/core/service/lifecycle"
	"roomdrop/internal/core/service/reservation"
	"roomdrop/internal/core/service/upload"
	"sync"
	"syscall"
	"time"
)

// blobStore is what the services need from a storage backend
type blobStore interface {
	port.Storage
	port.LinkGenerator
}

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}(db)
	logger.Info("db connection established")

	//storage
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init storage", "error", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	logger.Info("storage initialized", "backend", cfg.Storage.Backend)

	//connection registry
	registry, err := redis.NewRegistry(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to init redis registry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Error("failed to close redis registry", "error", err)
		}
	}()

	timers := scheduler.NewTimerScheduler(30*time.Second, logger)
	defer timers.Stop()

	credentials := jwt.NewAdapter(cfg.Auth)

	//repositories
	unitOfWork := postgres.NewUnitOfWork(db)

	//services
	reservationService := reservation.NewReservationService(unitOfWork, store, timers, logger)
	uploadService := upload.NewUploadService(unitOfWork, reservationService, store, store, cfg.Upload, logger)
	lifecycleService := lifecycle.NewLifecycleService(unitOfWork, store, registry, cfg.GC, logger)
	cleanupService := cleanup.NewCleanupService(unitOfWork, reservationService, cfg.Upload.CleanupBatchSize, logger)

	//http
	roomHandler := room.NewRoomHandlerV1(uploadService, lifecycleService, credentials, logger)
	adminHandler := admin.NewAdminHandlerV1(lifecycleService, credentials, cfg.Auth.AdminToken, logger)

	router := chi.NewRouter(logger, roomHandler, adminHandler, cfg.Env.Env)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// expired reservations sweep
	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(ctx, "reservation sweep", cfg.Upload.CleanupEvery, logger, func(ctx context.Context) error {
			_, err := cleanupService.CleanupExpiredReservations(ctx, time.Now())
			return err
		})
	}()

	// room gc
	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(ctx, "room gc", cfg.GC.Every, logger, func(ctx context.Context) error {
			_, err := lifecycleService.RunScheduledGc(ctx, cfg.GC.BatchSize)
			return err
		})
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendFilesystem:
		return filesystem.NewAdapter(cfg.Storage.FSRoot, logger)
	default:
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	}
}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

// runEvery calls task on every tick until ctx is done
func runEvery(ctx context.Context, name string, every time.Duration, logger *slog.Logger, task func(ctx context.Context) error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("periodic task initialized", "task", name, "interval", every)

	for {
		select {
		case <-ticker.C:
			if err := task(ctx); err != nil {
				logger.Error("periodic task failed", "task", name, "error", err)
			}
		case <-ctx.Done():
			logger.Info("periodic task stopped", "task", name)
			return
		}
	}
}
