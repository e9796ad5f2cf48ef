package lifecycle

import (
	"log/slog"
	"roomdrop/internal/config"
	"roomdrop/internal/core/port"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gcRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomdrop_gc_runs_total",
		Help: "Number of room GC sweeps",
	})

	gcRoomsReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomdrop_gc_rooms_reclaimed_total",
		Help: "Rooms deleted by the GC",
	})

	gcRoomsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomdrop_gc_rooms_skipped_total",
		Help: "Cleanup candidates the GC left in place",
	}, []string{"reason"})

	gcFileDeleteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomdrop_gc_file_delete_errors_total",
		Help: "Stored files the GC failed to delete",
	})

	gcDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roomdrop_gc_duration_seconds",
		Help:    "Duration of a room GC sweep",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

type lifecycleService struct {
	uow      port.UnitOfWork
	storage  port.Storage
	registry port.ConnectionRegistry
	cfg      config.GCConfig
	logger   *slog.Logger

	// serializes GC sweeps inside the process
	mu sync.Mutex
}

// NewLifecycleService creates a new room lifecycle service
func NewLifecycleService(uow port.UnitOfWork, storage port.Storage, registry port.ConnectionRegistry, cfg config.GCConfig, logger *slog.Logger) port.LifecycleService {
	return &lifecycleService{
		uow:      uow,
		storage:  storage,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "lifecycle")),
	}
}
