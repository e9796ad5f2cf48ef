package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"roomdrop/internal/adapters/eventbroker/nats"
	"roomdrop/internal/adapters/registry/redis"
	"roomdrop/internal/adapters/repository/postgres"
	"roomdrop/internal/adapters/storage/filesystem"
	"roomdrop/internal/adapters/storage/minio"
	"roomdrop/internal/config"
	"roomdrop/internal/core/port"
	"roomdrop/internal/core/service/lifecycle"
	"roomdrop/internal/core/service/roomevent"
	"syscall"
	"time"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Initialize database
	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	var store port.Storage
	if cfg.Storage.Backend == config.StorageBackendFilesystem {
		store, err = filesystem.NewAdapter(cfg.Storage.FSRoot, logger)
	} else {
		store, err = minio.NewAdapter(ctx, cfg.Minio, logger)
	}
	if err != nil {
		logger.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

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

	// Initialize services
	unitOfWork := postgres.NewUnitOfWork(db)
	lifecycleService := lifecycle.NewLifecycleService(unitOfWork, store, registry, cfg.GC, logger)
	presenceService := roomevent.NewRoomEventService(lifecycleService, logger)

	// Initialize NATS consumer
	natsConsumer, err := nats.NewNATSConsumer(cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to create NATS consumer", "error", err)
		os.Exit(1)
	}
	if err := natsConsumer.EnsureStream(ctx); err != nil {
		logger.Error("failed to ensure NATS stream", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS consumer initialized")

	if err := natsConsumer.Subscribe(ctx, presenceService); err != nil {
		logger.Error("failed to subscribe to NATS", "error", err)
		os.Exit(1)
	}
	logger.Info("NATS subscription active", "subject", cfg.NATS.Subject)

	// Wait for termination signal
	<-ctx.Done()
	logger.Info("gracefully shutting down lifecycle worker")

	if err := natsConsumer.Close(); err != nil {
		logger.Error("failed to close NATS consumer during shutdown", "error", err)
	}

	logger.Info("lifecycle worker shutdown complete")
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
