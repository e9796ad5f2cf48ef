package lifecycle

import (
	"context"
	"roomdrop/internal/core/domain"
)

// ListFullUnboundedRooms reports rooms without expiry that ran out of entries, with their GC state
func (l *lifecycleService) ListFullUnboundedRooms(ctx context.Context, limit int) ([]domain.FullRoomInfo, error) {
	if limit <= 0 {
		limit = l.cfg.BatchSize
	}

	rooms, err := l.uow.RoomRepo().FindFullUnbounded(ctx, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.FullRoomInfo, 0, len(rooms))
	for _, room := range rooms {
		maxExpiry, err := l.uow.CredentialRepo().MaxActiveExpiry(ctx, room.ID)
		if err != nil {
			return nil, err
		}

		live, err := l.registry.CountLiveConnections(ctx, room.Slug)
		if err != nil {
			// a report is still useful without the live count
			l.logger.Warn("could not count live connections", "room_id", room.ID, "error", err)
			live = -1
		}

		infos = append(infos, domain.FullRoomInfo{
			RoomID:              room.ID,
			Name:                room.Name,
			Slug:                room.Slug,
			Entries:             room.CurrentTimesEntered,
			EmptySince:          room.EmptySince,
			CleanupAfter:        room.CleanupAfter,
			MaxCredentialExpiry: maxExpiry,
			ActiveConnections:   live,
		})
	}

	return infos, nil
}
