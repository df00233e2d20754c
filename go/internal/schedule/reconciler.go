package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/timer"
)

// DefaultInterval is how often the reconciler refetches while active.
const DefaultInterval = 5 * time.Second

// Fetcher fetches the judge's assigned sessions from the backend.
type Fetcher interface {
	FetchJudgingSchedule(ctx context.Context) ([]JudgingScheduleItem, error)
}

// Reconciler keeps an in-memory scheduleID -> {room, duration} map
// fresh so the realtime channel can resolve metadata its events do not
// carry. Every successful fetch rebuilds the map from scratch; entries
// for removed schedules drop out implicitly.
//
// It also hydrates the timer store: a schedule observed with an actual
// start timestamp but no store record means this client missed the
// start event, so a running record is synthesized locally.
type Reconciler struct {
	fetcher  Fetcher
	store    *timer.Store
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.RWMutex
	entries map[int64]Entry
	byTeam  map[int64]string

	// refreshCh carries coalesced on-demand refresh requests from the
	// channel. Buffer of one: a refresh already queued covers any
	// number of additional requests.
	refreshCh chan struct{}
}

// NewReconciler creates a reconciler polling at interval; zero means
// DefaultInterval.
func NewReconciler(fetcher Fetcher, store *timer.Store, clock clockwork.Clock, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		fetcher:   fetcher,
		store:     store,
		clock:     clock,
		interval:  interval,
		entries:   make(map[int64]Entry),
		byTeam:    make(map[int64]string),
		refreshCh: make(chan struct{}, 1),
	}
}

// Lookup returns the cached metadata for a schedule.
func (r *Reconciler) Lookup(scheduleID int64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[scheduleID]
	return e, ok
}

// RoomForTeam returns the room a team is scheduled to judge in.
func (r *Reconciler) RoomForTeam(teamID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byTeam[teamID]
	return room, ok
}

// Refresh requests an out-of-band refetch. It never blocks; requests
// arriving while one is already queued coalesce into it.
func (r *Reconciler) Refresh() {
	select {
	case r.refreshCh <- struct{}{}:
	default:
	}
}

// Run fetches immediately, then on every interval tick or Refresh
// request until ctx is cancelled. Fetch failures are logged and
// swallowed; the next trigger retries.
func (r *Reconciler) Run(ctx context.Context) {
	r.fetchOnce(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("schedule reconciler stopped")
			return
		case <-ticker.Chan():
			r.fetchOnce(ctx)
		case <-r.refreshCh:
			r.fetchOnce(ctx)
		}
	}
}

func (r *Reconciler) fetchOnce(ctx context.Context) {
	items, err := r.fetcher.FetchJudgingSchedule(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("schedule fetch failed; will retry on next trigger")
		return
	}

	entries := make(map[int64]Entry, len(items))
	byTeam := make(map[int64]string, len(items))
	for _, item := range items {
		room := string(item.Location)
		entries[item.JudgingScheduleID] = Entry{
			Room:     room,
			Duration: item.DurationSeconds(),
			TeamID:   item.TeamID,
		}
		byTeam[item.TeamID] = room
	}

	r.mu.Lock()
	r.entries = entries
	r.byTeam = byTeam
	r.mu.Unlock()

	r.hydrate(items)

	log.Debug().Int("schedules", len(items)).Msg("schedule cache rebuilt")
}

// hydrate synthesizes running timer records for schedules that already
// started before this client was watching.
func (r *Reconciler) hydrate(items []JudgingScheduleItem) {
	now := r.clock.Now()
	for _, item := range items {
		if item.ActualTimestamp == nil {
			continue
		}
		room := string(item.Location)
		if room == "" {
			continue
		}
		if _, exists := r.store.Get(room); exists {
			continue
		}

		item := item
		duration := item.DurationSeconds()
		r.store.Upsert(room, func(t *timer.RoomTimer) {
			t.ActualStart = item.ActualTimestamp
			t.Duration = duration
			t.Remaining = timer.RemainingFromStart(item.ActualTimestamp, duration, now)
			t.LastSyncedAt = now
			t.Status = timer.StatusRunning
			t.JudgingScheduleID = &item.JudgingScheduleID
			t.TeamID = &item.TeamID
			t.Origin = timer.OriginConfirmed
		})
		log.Info().
			Str("room", room).
			Int64("judging_schedule_id", item.JudgingScheduleID).
			Msg("hydrated running timer from schedule")
	}
}
