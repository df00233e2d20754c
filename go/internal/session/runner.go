package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/timer"
)

// Snapshot is the derived view of one room's round at an instant,
// ready for a countdown or scorecard screen to render.
type Snapshot struct {
	Room           string
	Stage          Stage
	StageRemaining time.Duration
	RoundRemaining time.Duration
	Paused         bool
}

// Runner drives the per-second stage progression for one room while a
// session screen is mounted. Every tick recomputes the snapshot from
// the timer store and the clock; it holds no countdown state of its
// own, so authoritative updates (pause, resume, stop, a late sync)
// take effect on the very next emit.
//
// While the store reports the room paused, emitted snapshots freeze in
// place; ticking itself never stops until the round completes or the
// context is cancelled.
type Runner struct {
	store      *timer.Store
	room       string
	clock      clockwork.Clock
	onSnapshot func(Snapshot)
	onComplete func()
}

// NewRunner creates a runner for room. onSnapshot receives every
// derived view (ticks and store updates); onComplete fires once when
// the round reaches the complete stage. Either callback may be nil.
func NewRunner(store *timer.Store, room string, clock clockwork.Clock, onSnapshot func(Snapshot), onComplete func()) *Runner {
	return &Runner{
		store:      store,
		room:       room,
		clock:      clock,
		onSnapshot: onSnapshot,
		onComplete: onComplete,
	}
}

// Snapshot derives the current view for the runner's room. ok is false
// when the room has no active countdown (no record, or stopped).
func (r *Runner) Snapshot(now time.Time) (Snapshot, bool) {
	t, ok := r.store.Get(r.room)
	if !ok || t.Status == timer.StatusStopped {
		return Snapshot{}, false
	}

	stage, stageLeft := StageAt(t.Duration, t.Elapsed(now))
	roundLeft, _ := t.RemainingAt(now)
	return Snapshot{
		Room:           r.room,
		Stage:          stage,
		StageRemaining: stageLeft,
		RoundRemaining: roundLeft,
		Paused:         t.Status == timer.StatusPaused,
	}, true
}

// Run ticks once per second until the round completes or ctx is
// cancelled. Store updates for this room emit immediately as well, so
// a pushed pause or stop reaches the screen without waiting out the
// current tick.
func (r *Runner) Run(ctx context.Context) {
	updates := make(chan struct{}, 1)
	unsubscribe := r.store.Subscribe(func(t timer.RoomTimer) {
		if t.Room != r.room {
			return
		}
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := r.clock.NewTicker(time.Second)
	defer ticker.Stop()

	completed := false
	emit := func() bool {
		snap, ok := r.Snapshot(r.clock.Now())
		if !ok {
			return false
		}
		if r.onSnapshot != nil {
			r.onSnapshot(snap)
		}
		if snap.Stage == StageComplete && !completed {
			completed = true
			log.Info().Str("room", r.room).Msg("judging round complete")
			if r.onComplete != nil {
				r.onComplete()
			}
		}
		return completed
	}

	if emit() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if emit() {
				return
			}
		case <-updates:
			if emit() {
				return
			}
		}
	}
}
