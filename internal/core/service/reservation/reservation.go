package reservation

import (
	"context"
	"log/slog"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Release reasons
const (
	releaseReasonSelfHeal = "self_heal"
	releaseReasonLazy     = "lazy_expiry"
	releaseReasonDeferred = "deferred"
)

var reservationsReleasedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roomdrop_reservations_released_total",
	Help: "Expired reservations refunded to their room quota",
}, []string{"reason"})

type reservationService struct {
	uow       port.UnitOfWork
	storage   port.Storage
	scheduler port.DeferredScheduler
	logger    *slog.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(uow port.UnitOfWork, storage port.Storage, scheduler port.DeferredScheduler, logger *slog.Logger) port.ReservationService {
	return &reservationService{
		uow:       uow,
		storage:   storage,
		scheduler: scheduler,
		logger:    logger,
	}
}

// releaseExpired deletes the reservation if it is expired and unconsumed and refunds it.
// The conditional delete makes concurrent callers refund at most once.
func releaseExpired(ctx context.Context, uow port.UnitOfWork, id uuid.UUID, now time.Time) (*domain.UploadReservation, error) {
	deleted, err := uow.ReservationRepo().DeleteIfExpired(ctx, id, now)
	if err != nil || deleted == nil {
		return nil, err
	}

	if _, err := uow.RoomRepo().ReleaseQuota(ctx, deleted.RoomID, deleted.ReservedSize); err != nil {
		return nil, err
	}
	return deleted, nil
}

// afterRelease runs the side effects of released reservations once their transaction committed
func (r *reservationService) afterRelease(ctx context.Context, reason string, released ...domain.UploadReservation) {
	for _, reservation := range released {
		reservationsReleasedTotal.WithLabelValues(reason).Inc()
		r.scheduler.Cancel(reservation.ID.String())

		if !reservation.IsChunked {
			continue
		}
		if err := r.storage.DeletePrefix(ctx, domain.ChunkPrefix(reservation.ID)); err != nil {
			r.logger.Warn("failed to purge temporary chunks",
				"reservation_id", reservation.ID,
				"error", err)
		}
	}
}
