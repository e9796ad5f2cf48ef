package upload

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// GetContent returns a stored content record of the room with a time-limited download link.
// A record whose file is gone from storage is reported as not found.
func (u *uploadService) GetContent(ctx context.Context, roomID uuid.UUID, contentID uuid.UUID) (*domain.ContentRecord, string, *time.Time, error) {
	content, err := u.uow.ContentRepo().FindByID(ctx, contentID)
	if err != nil {
		return nil, "", nil, err
	}
	if content.RoomID != roomID {
		return nil, "", nil, domain.ErrContentNotFound
	}

	exists, err := u.storage.Exists(ctx, content.StorageKey)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: could not check stored file: %v", domain.ErrInternal, err)
	}
	if !exists {
		u.logger.Warn("content record without stored file",
			"room_id", roomID,
			"content_id", contentID,
			"key", content.StorageKey)
		return nil, "", nil, domain.ErrContentNotFound
	}

	url, expiresAt, err := u.links.DownloadURL(ctx, content.StorageKey, content.FileName)
	if err != nil {
		return nil, "", nil, err
	}

	return content, url, expiresAt, nil
}
