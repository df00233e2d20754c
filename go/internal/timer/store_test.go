package timer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/judgesync/go/internal/timer"
)

func TestStoreUpsertAndGet(t *testing.T) {
	store := timer.NewStore()

	_, ok := store.Get("alpha")
	assert.False(t, ok)

	store.Upsert("alpha", func(rt *timer.RoomTimer) {
		rt.Status = timer.StatusRunning
		rt.Duration = 5 * time.Minute
	})

	got, ok := store.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Room)
	assert.Equal(t, timer.StatusRunning, got.Status)
	assert.Equal(t, 5*time.Minute, got.Duration)

	// Last write wins.
	store.Upsert("alpha", func(rt *timer.RoomTimer) {
		rt.Status = timer.StatusPaused
	})
	got, _ = store.Get("alpha")
	assert.Equal(t, timer.StatusPaused, got.Status)
	assert.Equal(t, 5*time.Minute, got.Duration)
}

func TestStoreSubscribers(t *testing.T) {
	store := timer.NewStore()

	var seen []timer.RoomTimer
	cancel := store.Subscribe(func(rt timer.RoomTimer) {
		seen = append(seen, rt)
	})

	store.Upsert("alpha", func(rt *timer.RoomTimer) { rt.Status = timer.StatusRunning })
	require.Len(t, seen, 1)
	assert.Equal(t, "alpha", seen[0].Room)

	cancel()
	store.Upsert("alpha", func(rt *timer.RoomTimer) { rt.Status = timer.StatusStopped })
	assert.Len(t, seen, 1)
}

func TestStoreUpsertIfNewer(t *testing.T) {
	store := timer.NewStore()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store.Upsert("alpha", func(rt *timer.RoomTimer) {
		rt.Status = timer.StatusPaused
		rt.LastSyncedAt = base
	})

	t.Run("RejectsOlderEvent", func(t *testing.T) {
		_, applied := store.UpsertIfNewer("alpha", base.Add(-time.Second), func(rt *timer.RoomTimer) {
			rt.Status = timer.StatusRunning
		})
		assert.False(t, applied)

		got, _ := store.Get("alpha")
		assert.Equal(t, timer.StatusPaused, got.Status)
	})

	t.Run("AppliesNewerEvent", func(t *testing.T) {
		_, applied := store.UpsertIfNewer("alpha", base.Add(time.Second), func(rt *timer.RoomTimer) {
			rt.Status = timer.StatusRunning
			rt.LastSyncedAt = base.Add(time.Second)
		})
		assert.True(t, applied)

		got, _ := store.Get("alpha")
		assert.Equal(t, timer.StatusRunning, got.Status)
	})

	t.Run("AppliesToUnknownRoom", func(t *testing.T) {
		_, applied := store.UpsertIfNewer("beta", base, func(rt *timer.RoomTimer) {
			rt.Status = timer.StatusRunning
		})
		assert.True(t, applied)
	})
}

func TestStoreUpsertIfNewerConcurrentWriters(t *testing.T) {
	store := timer.NewStore()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// The channel reader and schedule hydration write concurrently.
	// However the writes interleave, an event must never land on top of
	// a record that a newer event already wrote.
	const writers = 32
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		eventTime := base.Add(time.Duration(i) * time.Second)
		remaining := time.Duration(i) * time.Second
		go func() {
			defer wg.Done()
			store.UpsertIfNewer("alpha", eventTime, func(rt *timer.RoomTimer) {
				rt.LastSyncedAt = eventTime
				rt.Remaining = remaining
			})
		}()
	}
	wg.Wait()

	got, ok := store.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, base.Add((writers-1)*time.Second), got.LastSyncedAt)
	assert.Equal(t, (writers-1)*time.Second, got.Remaining)
}

func TestStoreOptimisticStart(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduleID := int64(42)

	t.Run("PendingRecordVisibleImmediately", func(t *testing.T) {
		store := timer.NewStore()
		got := store.OptimisticStart("alpha", &scheduleID, nil, 5*time.Minute, base)

		assert.Equal(t, timer.StatusRunning, got.Status)
		assert.Equal(t, timer.OriginPending, got.Origin)
		assert.Equal(t, 5*time.Minute, got.Remaining)
		require.NotNil(t, got.ActualStart)
		assert.Equal(t, base, *got.ActualStart)
	})

	t.Run("AbortRemovesSpeculativeRecord", func(t *testing.T) {
		store := timer.NewStore()
		store.OptimisticStart("alpha", &scheduleID, nil, 5*time.Minute, base)

		assert.True(t, store.AbortPending("alpha"))
		_, ok := store.Get("alpha")
		assert.False(t, ok)
	})

	t.Run("AbortRestoresPriorRecord", func(t *testing.T) {
		store := timer.NewStore()
		store.Upsert("alpha", func(rt *timer.RoomTimer) {
			rt.Status = timer.StatusStopped
			rt.Origin = timer.OriginConfirmed
		})
		store.OptimisticStart("alpha", &scheduleID, nil, 5*time.Minute, base)

		assert.True(t, store.AbortPending("alpha"))
		got, ok := store.Get("alpha")
		require.True(t, ok)
		assert.Equal(t, timer.StatusStopped, got.Status)
	})

	t.Run("AbortIsNoopAfterConfirmation", func(t *testing.T) {
		store := timer.NewStore()
		store.OptimisticStart("alpha", &scheduleID, nil, 5*time.Minute, base)
		store.Upsert("alpha", func(rt *timer.RoomTimer) {
			rt.Origin = timer.OriginConfirmed
		})

		assert.False(t, store.AbortPending("alpha"))
		got, ok := store.Get("alpha")
		require.True(t, ok)
		assert.Equal(t, timer.StatusRunning, got.Status)
	})
}
