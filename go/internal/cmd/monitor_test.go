package main

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/judgesync/go/internal/timer"
)

func startRound(store *timer.Store, room string, start time.Time) {
	store.Upsert(room, func(rt *timer.RoomTimer) {
		rt.ActualStart = &start
		rt.Duration = 2 * time.Minute
		rt.Remaining = 2 * time.Minute
		rt.LastSyncedAt = start
		rt.Status = timer.StatusRunning
		rt.Origin = timer.OriginConfirmed
	})
}

func TestMonitorRespawnsAfterRoundCompletes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := timer.NewStore()
	m := newRoomMonitor(store, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.run(ctx)
		close(done)
	}()

	// Upsert until the monitor's subscription picks the room up.
	require.Eventually(t, func() bool {
		startRound(store, "Room 1", clock.Now())
		return m.watching("Room 1")
	}, time.Second, time.Millisecond)

	// Tick out the whole round; the watcher must fully unwind and only
	// then release the room.
	clock.BlockUntil(1)
	for i := 0; i < 121; i++ {
		clock.Advance(time.Second)
	}
	require.Eventually(t, func() bool {
		return !m.watching("Room 1")
	}, time.Second, time.Millisecond)

	// A fresh round for the same room gets a new watcher.
	require.Eventually(t, func() bool {
		startRound(store, "Room 1", clock.Now())
		return m.watching("Room 1")
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}
