package roomevent

import (
	"log/slog"
	"roomdrop/internal/core/port"
)

type roomEventService struct {
	lifecycle port.LifecycleService
	logger    *slog.Logger
}

// NewRoomEventService creates a new presence event handler
func NewRoomEventService(lifecycle port.LifecycleService, logger *slog.Logger) port.MessageService {
	return &roomEventService{
		lifecycle: lifecycle,
		logger:    logger,
	}
}
