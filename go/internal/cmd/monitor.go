package main

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/session"
	"github.com/hackmate/judgesync/go/internal/timer"
)

// roomMonitor spawns a session runner for every room that appears in
// the timer store and logs stage transitions. It stands in for the
// screens a UI layer would mount per room.
type roomMonitor struct {
	store *timer.Store
	clock clockwork.Clock

	mu      sync.Mutex
	running map[string]bool
}

func newRoomMonitor(store *timer.Store, clock clockwork.Clock) *roomMonitor {
	return &roomMonitor{
		store:   store,
		clock:   clock,
		running: make(map[string]bool),
	}
}

func (m *roomMonitor) run(ctx context.Context) {
	var wg sync.WaitGroup

	unsubscribe := m.store.Subscribe(func(t timer.RoomTimer) {
		m.mu.Lock()
		if m.running[t.Room] {
			m.mu.Unlock()
			return
		}
		m.running[t.Room] = true
		m.mu.Unlock()

		wg.Add(1)
		go func(room string) {
			defer wg.Done()
			m.watch(ctx, room)
		}(t.Room)
	})
	defer unsubscribe()

	<-ctx.Done()
	wg.Wait()
}

// watch drives one runner for room. The running flag clears only after
// Run has returned, so an event arriving mid-teardown cannot spawn a
// second runner for the same room.
func (m *roomMonitor) watch(ctx context.Context, room string) {
	var (
		mu        sync.Mutex
		lastStage session.Stage
	)

	runner := session.NewRunner(m.store, room, m.clock, func(snap session.Snapshot) {
		mu.Lock()
		changed := snap.Stage != lastStage
		lastStage = snap.Stage
		mu.Unlock()
		if changed {
			log.Info().
				Str("room", snap.Room).
				Str("stage", string(snap.Stage)).
				Dur("stage_remaining", snap.StageRemaining).
				Bool("paused", snap.Paused).
				Msg("stage changed")
		}
	}, nil)

	runner.Run(ctx)

	m.mu.Lock()
	delete(m.running, room)
	m.mu.Unlock()
}

func (m *roomMonitor) watching(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[room]
}
