package timer

import "time"

// Status is the authoritative timer state as dictated by the backend.
type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// Origin records whether a timer record was written optimistically by a
// local admin action or confirmed by the realtime channel.
type Origin string

const (
	OriginPending   Origin = "pending"
	OriginConfirmed Origin = "confirmed"
)

// RoomTimer is the per-room judging round timer record.
//
// Remaining is a snapshot taken at LastSyncedAt. For a running timer it
// goes stale immediately; consumers must recompute via RemainingAt
// instead of reading the field directly.
type RoomTimer struct {
	Room        string
	ActualStart *time.Time
	Duration    time.Duration
	Remaining   time.Duration
	// PausedTotal is the accumulated wall-clock time this round spent
	// paused. It credits back against elapsed time so that pauses do
	// not eat into the round.
	PausedTotal       time.Duration
	LastSyncedAt      time.Time
	Status            Status
	JudgingScheduleID *int64
	TeamID            *int64
	Origin            Origin
}
