package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus represents the access status of a room
type RoomStatus string

const (
	RoomStatusOpen   RoomStatus = "open"
	RoomStatusLocked RoomStatus = "locked"
	RoomStatusClosed RoomStatus = "closed"
)

// Permission is the bitset of actions a room credential allows
type Permission uint8

const (
	PermissionView Permission = 1 << iota
	PermissionEdit
	PermissionShare
	PermissionDelete
)

// PermissionAll grants every action
const PermissionAll = PermissionView | PermissionEdit | PermissionShare | PermissionDelete

// Has reports whether p grants want. Delete implies every other bit.
func (p Permission) Has(want Permission) bool {
	if p&PermissionDelete != 0 {
		return true
	}
	return p&want == want
}

// Room represents a quota-bounded storage area
type Room struct {
	ID                  uuid.UUID
	Name                string
	Slug                string
	Status              RoomStatus
	MaxSize             int64
	CurrentSize         int64
	MaxTimesEntered     int64
	CurrentTimesEntered int64
	ExpireAt            *time.Time
	Permission          Permission
	EmptySince          *time.Time
	CleanupAfter        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailableSize returns the bytes that can still be reserved
func (r *Room) AvailableSize() int64 {
	if r.CurrentSize >= r.MaxSize {
		return 0
	}
	return r.MaxSize - r.CurrentSize
}

// IsEntryCapped reports whether the room limits its number of entries. Zero means unlimited.
func (r *Room) IsEntryCapped() bool {
	return r.MaxTimesEntered > 0
}

// HasEntriesLeft reports whether one more entry is allowed
func (r *Room) HasEntriesLeft() bool {
	return !r.IsEntryCapped() || r.CurrentTimesEntered < r.MaxTimesEntered
}

// IsFullUnbounded reports whether the room has no absolute expiry and no entries left.
// Rooms with an expire_at are never eligible for early reclaim, even when full.
func (r *Room) IsFullUnbounded() bool {
	return r.ExpireAt == nil && !r.HasEntriesLeft()
}

// IsEligibleForCleanup reports whether the room may be reclaimed at now
func (r *Room) IsEligibleForCleanup(now time.Time) bool {
	return r.IsFullUnbounded() && r.CleanupAfter != nil && !now.Before(*r.CleanupAfter)
}

// FullRoomInfo is the admin view of a full, unbounded room
type FullRoomInfo struct {
	RoomID              uuid.UUID
	Name                string
	Slug                string
	Entries             int64
	EmptySince          *time.Time
	CleanupAfter        *time.Time
	MaxCredentialExpiry *time.Time
	ActiveConnections   int
}
