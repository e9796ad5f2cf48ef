package lifecycle

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"
)

// RegisterCredential records an issued credential so cleanup never outruns it.
// A reissued credential reactivates the room.
func (l *lifecycleService) RegisterCredential(ctx context.Context, credential domain.CredentialRecord) error {
	if credential.JTI == "" {
		return fmt.Errorf("%w: credential id is required", domain.ErrValidation)
	}
	if credential.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: credential expiry is required", domain.ErrValidation)
	}
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now()
	}

	return l.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if _, err := uow.RoomRepo().FindByIDForUpdate(ctx, credential.RoomID); err != nil {
			return err
		}
		if err := uow.CredentialRepo().Create(ctx, credential); err != nil {
			return err
		}
		return uow.RoomRepo().ClearCleanupMarkers(ctx, credential.RoomID)
	})
}

// RevokeCredential stops a credential from holding its room back from cleanup
func (l *lifecycleService) RevokeCredential(ctx context.Context, jti string) error {
	return l.uow.CredentialRepo().Revoke(ctx, jti)
}
