package timer

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store holds the RoomTimer records for every judging room, keyed by
// room name. It lives for the whole process; entries are overwritten by
// newer events, never removed.
//
// The store is an injected dependency rather than a package global so
// tests can run independent instances. Writers are the realtime
// channel, schedule hydration and local optimistic starts; readers are
// the session runners and any screen rendering a countdown, so all
// access is mutex guarded.
type Store struct {
	mu      sync.RWMutex
	timers  map[string]*RoomTimer
	subs    map[int]func(RoomTimer)
	nextSub int

	// pendingPrev remembers what a room held before an optimistic
	// start, so a rejected start can roll back.
	pendingPrev map[string]*RoomTimer
}

// NewStore creates an empty timer store.
func NewStore() *Store {
	return &Store{
		timers:      make(map[string]*RoomTimer),
		subs:        make(map[int]func(RoomTimer)),
		pendingPrev: make(map[string]*RoomTimer),
	}
}

// Get returns a copy of the timer record for room.
func (s *Store) Get(room string) (RoomTimer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.timers[room]
	if !ok {
		return RoomTimer{}, false
	}
	return *t, true
}

// Rooms returns the names of every room with a timer record.
func (s *Store) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]string, 0, len(s.timers))
	for room := range s.timers {
		rooms = append(rooms, room)
	}
	return rooms
}

// Upsert merges an update into the record for room, creating it if
// absent. Last write wins. mutate receives the record with Room already
// set. Subscribers are notified synchronously before Upsert returns.
func (s *Store) Upsert(room string, mutate func(*RoomTimer)) RoomTimer {
	s.mu.Lock()
	updated, subs := s.applyLocked(room, mutate)
	s.mu.Unlock()

	notify(subs, updated)
	return updated
}

// UpsertIfNewer applies mutate only when eventTime is not older than
// the record's LastSyncedAt. Channel events arrive without sequence
// numbers, so this timestamp guard is the only defense against a
// reordered pause/start pair clobbering newer state. The check and the
// write share one critical section so a stale event cannot slip in
// behind a concurrent newer write.
func (s *Store) UpsertIfNewer(room string, eventTime time.Time, mutate func(*RoomTimer)) (RoomTimer, bool) {
	s.mu.Lock()
	if existing, ok := s.timers[room]; ok && eventTime.Before(existing.LastSyncedAt) {
		stale := *existing
		s.mu.Unlock()
		log.Debug().
			Str("room", room).
			Time("event_time", eventTime).
			Time("last_synced_at", stale.LastSyncedAt).
			Msg("dropping stale timer event")
		return stale, false
	}
	updated, subs := s.applyLocked(room, mutate)
	s.mu.Unlock()

	notify(subs, updated)
	return updated, true
}

// applyLocked mutates the record for room, creating it if absent.
// Callers must hold mu; the returned subscribers are notified after it
// is released.
func (s *Store) applyLocked(room string, mutate func(*RoomTimer)) (RoomTimer, []func(RoomTimer)) {
	t, ok := s.timers[room]
	if !ok {
		t = &RoomTimer{Room: room}
		s.timers[room] = t
	}
	mutate(t)
	if t.Origin == OriginConfirmed {
		delete(s.pendingPrev, room)
	}
	return *t, s.subscriberSnapshot()
}

// OptimisticStart writes a pending running record for room before the
// backend has confirmed the start. A later confirmed write supersedes
// it; AbortPending rolls it back if the start request fails first.
func (s *Store) OptimisticStart(room string, scheduleID, teamID *int64, duration time.Duration, now time.Time) RoomTimer {
	s.mu.Lock()
	if prev, ok := s.timers[room]; ok {
		prevCopy := *prev
		s.pendingPrev[room] = &prevCopy
	} else {
		s.pendingPrev[room] = nil
	}
	s.mu.Unlock()

	start := now
	return s.Upsert(room, func(t *RoomTimer) {
		t.ActualStart = &start
		t.Duration = duration
		t.Remaining = duration
		t.PausedTotal = 0
		t.LastSyncedAt = now
		t.Status = StatusRunning
		t.JudgingScheduleID = scheduleID
		t.TeamID = teamID
		t.Origin = OriginPending
	})
}

// AbortPending rolls back an optimistic start that the backend
// rejected. It is a no-op when the record has since been confirmed by a
// channel event: the confirmed state is newer and must stand.
func (s *Store) AbortPending(room string) bool {
	s.mu.Lock()
	t, ok := s.timers[room]
	if !ok || t.Origin != OriginPending {
		s.mu.Unlock()
		return false
	}

	prev, hadPrev := s.pendingPrev[room]
	delete(s.pendingPrev, room)

	var restored RoomTimer
	if hadPrev && prev != nil {
		s.timers[room] = prev
		restored = *prev
	} else {
		delete(s.timers, room)
	}
	subs := s.subscriberSnapshot()
	s.mu.Unlock()

	log.Warn().Str("room", room).Msg("rolled back unconfirmed timer start")
	if hadPrev && prev != nil {
		notify(subs, restored)
	}
	return true
}

// Subscribe registers fn to be called synchronously with a copy of the
// updated record on every upsert. The returned cancel func detaches it.
func (s *Store) Subscribe(fn func(RoomTimer)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// subscriberSnapshot copies the subscriber set so notification can run
// outside the lock. Callers must hold mu.
func (s *Store) subscriberSnapshot() []func(RoomTimer) {
	subs := make([]func(RoomTimer), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(RoomTimer), t RoomTimer) {
	for _, fn := range subs {
		fn(t)
	}
}
