package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is an error thrown when caller input is malformed
var ErrValidation = errors.New("validation error")

// ErrQuotaExceeded is an error thrown when a room has no room left for a reservation
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrNotFound is an error thrown when an entity is missing
var ErrNotFound = errors.New("not found")

// ErrPermissionDenied is an error thrown when a credential cannot act on a resource
var ErrPermissionDenied = errors.New("permission denied")

// ErrConflict is an error thrown when the state already moved on
var ErrConflict = errors.New("conflict")

// ErrExpired is an error thrown when a reservation TTL passed
var ErrExpired = errors.New("reservation expired")

// ErrIntegrity is an error thrown when a hash does not match the received bytes
var ErrIntegrity = errors.New("integrity error")

// ErrIncomplete is an error thrown when a merge is attempted before every chunk is present
var ErrIncomplete = errors.New("upload incomplete")

// ErrInvalidState is an error thrown when the operation does not apply to the reservation kind
var ErrInvalidState = errors.New("invalid state")

// ErrInternal is an error thrown on storage or naming failures
var ErrInternal = errors.New("internal error")

var (
	// ErrRoomNotFound is an error thrown when room is not found
	ErrRoomNotFound = fmt.Errorf("room %w", ErrNotFound)
	// ErrReservationNotFound is an error thrown when reservation is not found
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	// ErrChunkNotFound is an error thrown when chunk is not found
	ErrChunkNotFound = fmt.Errorf("chunk %w", ErrNotFound)
	// ErrContentNotFound is an error thrown when content is not found
	ErrContentNotFound = fmt.Errorf("content %w", ErrNotFound)
	// ErrCredentialNotFound is an error thrown when credential is not found
	ErrCredentialNotFound = fmt.Errorf("credential %w", ErrNotFound)

	// ErrTokenMismatch is an error thrown when a credential differs from the reserving one
	ErrTokenMismatch = fmt.Errorf("%w: token mismatch", ErrPermissionDenied)
	// ErrAlreadyConsumed is an error thrown when a reservation was finalized already
	ErrAlreadyConsumed = fmt.Errorf("%w: reservation already consumed", ErrConflict)
	// ErrDuplicateChunk is an error thrown when a chunk index was received already
	ErrDuplicateChunk = fmt.Errorf("%w: chunk already received", ErrConflict)
	// ErrMergeInProgress is an error thrown when another merge holds the reservation
	ErrMergeInProgress = fmt.Errorf("%w: merge already in progress", ErrConflict)
	// ErrOverReservation is an error thrown when uploaded bytes exceed the reserved size
	ErrOverReservation = fmt.Errorf("%w: actual size exceeds reserved size", ErrValidation)
	// ErrRoomClosed is an error thrown when a locked or closed room refuses entry
	ErrRoomClosed = fmt.Errorf("%w: room is not open", ErrPermissionDenied)
	// ErrNameTaken is an error thrown when a file name is already used in the room
	ErrNameTaken = fmt.Errorf("%w: file name already used in the room", ErrConflict)
	// ErrRoomFull is an error thrown when a room used up its entries
	ErrRoomFull = fmt.Errorf("%w: room has no entries left", ErrPermissionDenied)
)
