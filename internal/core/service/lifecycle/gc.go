package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"
)

// Skip reasons
const (
	skipNotEligible = "not_eligible"
	skipLive        = "live_connections"
	skipRegistry    = "registry_error"
	skipError       = "error"
)

// errStillLive aborts a reclaim when a viewer showed up in the meantime
var errStillLive = errors.New("room has live connections")

// RunScheduledGc reclaims up to limit rooms whose cleanup time passed, oldest first.
// A failure on one room is logged and the sweep moves on.
func (l *lifecycleService) RunScheduledGc(ctx context.Context, limit int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = l.cfg.BatchSize
	}

	start := time.Now()
	gcRunsTotal.Inc()
	defer func() {
		gcDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	candidates, err := l.uow.RoomRepo().FindCleanupCandidates(ctx, start, limit)
	if err != nil {
		return 0, fmt.Errorf("could not list cleanup candidates: %w", err)
	}

	reclaimed := 0
	for _, room := range candidates {
		if ctx.Err() != nil {
			break
		}

		ok, reason, err := l.reclaim(ctx, room)
		if err != nil {
			l.logger.Error("room cleanup failed",
				slog.String("room_id", room.ID.String()),
				slog.String("error", err.Error()))
		}
		if !ok {
			gcRoomsSkippedTotal.WithLabelValues(reason).Inc()
			continue
		}
		reclaimed++
	}

	gcRoomsReclaimedTotal.Add(float64(reclaimed))
	l.logger.Info("room gc finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("reclaimed", reclaimed),
		slog.Duration("duration", time.Since(start)))

	return reclaimed, nil
}

// reclaim deletes one room when it is still eligible and nobody is connected
func (l *lifecycleService) reclaim(ctx context.Context, candidate domain.Room) (bool, string, error) {
	if !candidate.IsEligibleForCleanup(time.Now()) {
		// entries were added back or an expiry was set since the markers were stamped
		return false, skipNotEligible, l.OnRoomBecameActive(ctx, candidate.ID)
	}

	if live, err := l.liveConnections(ctx, candidate); err != nil {
		return false, skipRegistry, err
	} else if live > 0 {
		return false, skipLive, l.OnRoomBecameActive(ctx, candidate.ID)
	}

	var contents []domain.ContentRecord
	var reservations []domain.UploadReservation

	txErr := l.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		room, err := uow.RoomRepo().FindByIDForUpdate(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if !room.IsEligibleForCleanup(time.Now()) {
			return domain.ErrConflict
		}

		// last look right before the destructive part
		live, err := l.liveConnections(ctx, *room)
		if err != nil {
			return err
		}
		if live > 0 {
			return errStillLive
		}

		if contents, err = uow.ContentRepo().ListByRoom(ctx, room.ID); err != nil {
			return err
		}
		if reservations, err = uow.ReservationRepo().ListByRoom(ctx, room.ID); err != nil {
			return err
		}

		if _, err := uow.ContentRepo().DeleteByRoom(ctx, room.ID); err != nil {
			return err
		}
		if err := uow.CredentialRepo().DeleteByRoom(ctx, room.ID); err != nil {
			return err
		}
		return uow.RoomRepo().Delete(ctx, room.ID)
	})
	switch {
	case errors.Is(txErr, errStillLive):
		return false, skipLive, l.OnRoomBecameActive(ctx, candidate.ID)
	case errors.Is(txErr, domain.ErrConflict), errors.Is(txErr, domain.ErrRoomNotFound):
		return false, skipNotEligible, nil
	case txErr != nil:
		return false, skipError, txErr
	}

	l.purgeBlobs(ctx, candidate, contents, reservations)

	l.logger.Info("room reclaimed",
		slog.String("room_id", candidate.ID.String()),
		slog.String("slug", candidate.Slug),
		slog.Int("files", len(contents)))

	return true, "", nil
}

func (l *lifecycleService) liveConnections(ctx context.Context, room domain.Room) (int, error) {
	live, err := l.registry.CountLiveConnections(ctx, room.Slug)
	if err != nil {
		return 0, fmt.Errorf("could not count connections of %s: %w", room.Slug, err)
	}
	return live, nil
}

// purgeBlobs deletes the stored bytes of a reclaimed room, logging and continuing on failure
func (l *lifecycleService) purgeBlobs(ctx context.Context, room domain.Room, contents []domain.ContentRecord, reservations []domain.UploadReservation) {
	for _, content := range contents {
		if err := l.storage.Delete(ctx, content.StorageKey); err != nil {
			gcFileDeleteErrorsTotal.Inc()
			l.logger.Warn("failed to delete stored file",
				slog.String("room_id", room.ID.String()),
				slog.String("key", content.StorageKey),
				slog.String("error", err.Error()))
		}
	}

	for _, reservation := range reservations {
		if !reservation.IsChunked || reservation.IsConsumed() {
			continue
		}
		if err := l.storage.DeletePrefix(ctx, domain.ChunkPrefix(reservation.ID)); err != nil {
			gcFileDeleteErrorsTotal.Inc()
			l.logger.Warn("failed to delete temporary chunks",
				slog.String("reservation_id", reservation.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	// anything a failed compensation left behind
	if err := l.storage.DeletePrefix(ctx, domain.RoomPrefix(room.ID)); err != nil {
		gcFileDeleteErrorsTotal.Inc()
		l.logger.Warn("failed to sweep room prefix",
			slog.String("room_id", room.ID.String()),
			slog.String("error", err.Error()))
	}
}
