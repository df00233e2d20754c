// Package judging ties the timer store, schedule cache and backend
// client into the surface the session screens consume: countdown and
// stage read accessors plus the admin start action.
package judging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/schedule"
	"github.com/hackmate/judgesync/go/internal/session"
	"github.com/hackmate/judgesync/go/internal/timer"
)

// ErrUnknownSchedule is returned when a start is requested for a
// schedule the cache has no metadata for.
var ErrUnknownSchedule = errors.New("unknown judging schedule")

// ScheduleLookup provides cached schedule metadata.
type ScheduleLookup interface {
	Lookup(scheduleID int64) (schedule.Entry, bool)
}

// TimerStarter triggers the backend start-timer-by-room action.
type TimerStarter interface {
	StartRoomTimer(ctx context.Context, room string, scheduleID int64, startedAt time.Time) error
}

// App exposes the timer read model to UI collaborators.
type App struct {
	store     *timer.Store
	schedules ScheduleLookup
	api       TimerStarter
	clock     clockwork.Clock
}

// NewApp creates the judging app facade.
func NewApp(store *timer.Store, schedules ScheduleLookup, api TimerStarter, clock clockwork.Clock) *App {
	return &App{
		store:     store,
		schedules: schedules,
		api:       api,
		clock:     clock,
	}
}

// StartTimer starts the round for a schedule: the store is updated
// optimistically so the countdown renders immediately, then the
// backend action is issued. If the request fails while the record is
// still unconfirmed, the optimistic write is rolled back and the error
// returned for the screen to surface.
func (a *App) StartTimer(ctx context.Context, scheduleID int64) error {
	entry, ok := a.schedules.Lookup(scheduleID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSchedule, scheduleID)
	}

	now := a.clock.Now()
	teamID := entry.TeamID
	a.store.OptimisticStart(entry.Room, &scheduleID, &teamID, entry.Duration, now)
	log.Info().
		Str("room", entry.Room).
		Int64("judging_schedule_id", scheduleID).
		Msg("optimistically started room timer")

	if err := a.api.StartRoomTimer(ctx, entry.Room, scheduleID, now); err != nil {
		a.store.AbortPending(entry.Room)
		return fmt.Errorf("start timer for schedule %d: %w", scheduleID, err)
	}
	return nil
}

// RoomTimer returns the current record for room.
func (a *App) RoomTimer(room string) (timer.RoomTimer, bool) {
	return a.store.Get(room)
}

// RemainingSeconds returns the whole seconds left on a room's round
// countdown. ok is false when no countdown is active.
func (a *App) RemainingSeconds(room string) (int, bool) {
	t, ok := a.store.Get(room)
	if !ok {
		return 0, false
	}
	remaining, ok := t.RemainingAt(a.clock.Now())
	if !ok {
		return 0, false
	}
	return int(remaining / time.Second), true
}

// StageFor returns the current stage of a room's round.
func (a *App) StageFor(room string) (session.Stage, bool) {
	t, ok := a.store.Get(room)
	if !ok || t.Status == timer.StatusStopped {
		return "", false
	}
	stage, _ := session.StageAt(t.Duration, t.Elapsed(a.clock.Now()))
	return stage, true
}

// CanScore reports whether scoring inputs should be enabled for the
// judge's room: only once a timer record exists for it.
func (a *App) CanScore(room string) bool {
	_, ok := a.store.Get(room)
	return ok
}
