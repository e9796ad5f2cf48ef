package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"path/filepath"
	"roomdrop/internal/config"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxNameAttempts bounds the collision suffix search
const maxNameAttempts = 1000

// maxCommitAttempts bounds the retries of a commit that lost a file name to a concurrent upload
const maxCommitAttempts = 3

// Integrity failure stages
const (
	stageChunk = "chunk"
	stageFile  = "file"
	stageMerge = "merge"
)

var integrityFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roomdrop_integrity_failures_total",
	Help: "Uploads rejected because the received bytes did not match the declared hash",
}, []string{"stage"})

type uploadService struct {
	uow          port.UnitOfWork
	reservations port.ReservationService
	storage      port.Storage
	links        port.LinkGenerator
	cfg          config.UploadConfig
	logger       *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(
	uow port.UnitOfWork,
	reservations port.ReservationService,
	storage port.Storage,
	links port.LinkGenerator,
	cfg config.UploadConfig,
	logger *slog.Logger,
) port.UploadService {
	return &uploadService{
		uow:          uow,
		reservations: reservations,
		storage:      storage,
		links:        links,
		cfg:          cfg,
		logger:       logger,
	}
}

// authorize checks that the credential may write into roomID
func authorize(roomID uuid.UUID, credential domain.Credential) error {
	if credential.RoomID != roomID {
		return fmt.Errorf("%w: credential belongs to another room", domain.ErrPermissionDenied)
	}
	if !credential.Permission.Has(domain.PermissionEdit) {
		return fmt.Errorf("%w: edit permission required", domain.ErrPermissionDenied)
	}
	return nil
}

// loadOwned reads a reservation and checks it belongs to the room and the credential
func (u *uploadService) loadOwned(ctx context.Context, reservationID, roomID uuid.UUID, credentialID string) (*domain.UploadReservation, error) {
	reservation, err := u.uow.ReservationRepo().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.RoomID != roomID {
		return nil, domain.ErrReservationNotFound
	}
	if reservation.CredentialID != credentialID {
		return nil, domain.ErrTokenMismatch
	}
	return reservation, nil
}

// expire refunds an expired reservation on the spot and reports it
func (u *uploadService) expire(ctx context.Context, reservationID uuid.UUID) error {
	if _, err := u.reservations.ReleaseIfPending(ctx, reservationID); err != nil {
		u.logger.Warn("failed to release expired reservation",
			"reservation_id", reservationID,
			"error", err)
	}
	return fmt.Errorf("reservation %s: %w", reservationID, domain.ErrExpired)
}

// resolveName returns name, or the first free "base(n).ext" variant in the room.
// taken holds names already claimed by the current batch.
func (u *uploadService) resolveName(ctx context.Context, roomID uuid.UUID, name string, taken map[string]struct{}) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for attempt := 0; attempt <= maxNameAttempts; attempt++ {
		if attempt > 0 {
			candidate = fmt.Sprintf("%s(%d)%s", base, attempt, ext)
		}
		if _, ok := taken[candidate]; ok {
			continue
		}

		exists, err := u.uow.ContentRepo().ExistsByName(ctx, roomID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no free name for %q after %d attempts", domain.ErrInternal, name, maxNameAttempts)
}

// commitWithFreshNames runs commit and, when a concurrent upload claimed one of the
// names since it was resolved, picks free names again and retries. Keys do not
// depend on names so no blob moves.
func (u *uploadService) commitWithFreshNames(ctx context.Context, roomID uuid.UUID, placed []placedFile, commit func([]placedFile) error) error {
	for attempt := 1; ; attempt++ {
		err := commit(placed)
		if !errors.Is(err, domain.ErrNameTaken) || attempt == maxCommitAttempts {
			return err
		}

		u.logger.Info("file name claimed concurrently, renaming",
			"room_id", roomID,
			"attempt", attempt)

		taken := make(map[string]struct{}, len(placed))
		for i := range placed {
			name, err := u.resolveName(ctx, roomID, placed[i].requested, taken)
			if err != nil {
				return err
			}
			placed[i].record.FileName = name
			placed[i].entry.Name = name
			taken[name] = struct{}{}
		}
	}
}

// sanitizeName keeps the last path element and drops control characters
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	if name == "" || name == "/" {
		return "file"
	}
	return name
}

// isSHA256Hex reports whether s looks like a hex encoded sha256 digest
func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// hashingReader counts and hashes everything read through it
type hashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newHashingReader(r io.Reader) *hashingReader {
	h := sha256.New()
	return &hashingReader{r: io.TeeReader(r, h), h: h}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	hr.n += int64(n)
	return n, err
}

func (hr *hashingReader) Sum() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}
