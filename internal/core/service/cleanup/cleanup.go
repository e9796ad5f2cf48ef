package cleanup

import (
	"log/slog"
	"roomdrop/internal/core/port"
)

type cleanupService struct {
	uow          port.UnitOfWork
	reservations port.ReservationService
	batchSize    int
	logger       *slog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(uow port.UnitOfWork, reservations port.ReservationService, batchSize int, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		uow:          uow,
		reservations: reservations,
		batchSize:    batchSize,
		logger:       logger,
	}
}
