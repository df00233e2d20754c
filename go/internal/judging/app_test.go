package judging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/judgesync/go/internal/judging"
	"github.com/hackmate/judgesync/go/internal/schedule"
	"github.com/hackmate/judgesync/go/internal/session"
	"github.com/hackmate/judgesync/go/internal/timer"
)

type stubSchedules map[int64]schedule.Entry

func (s stubSchedules) Lookup(id int64) (schedule.Entry, bool) {
	e, ok := s[id]
	return e, ok
}

type stubStarter struct {
	err   error
	calls int
}

func (s *stubStarter) StartRoomTimer(ctx context.Context, room string, scheduleID int64, startedAt time.Time) error {
	s.calls++
	return s.err
}

func newApp(starter *stubStarter) (*judging.App, *timer.Store, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	store := timer.NewStore()
	schedules := stubSchedules{
		1: {Room: "Room 1", Duration: 6 * time.Minute, TeamID: 10},
	}
	return judging.NewApp(store, schedules, starter, clock), store, clock
}

func TestStartTimerOptimisticThenConfirmed(t *testing.T) {
	starter := &stubStarter{}
	app, store, _ := newApp(starter)

	require.NoError(t, app.StartTimer(context.Background(), 1))
	assert.Equal(t, 1, starter.calls)

	got, ok := store.Get("Room 1")
	require.True(t, ok)
	assert.Equal(t, timer.StatusRunning, got.Status)
	assert.Equal(t, timer.OriginPending, got.Origin)

	remaining, ok := app.RemainingSeconds("Room 1")
	require.True(t, ok)
	assert.Equal(t, 360, remaining)
}

func TestStartTimerRollsBackOnFailure(t *testing.T) {
	starter := &stubStarter{err: errors.New("network down")}
	app, store, _ := newApp(starter)

	err := app.StartTimer(context.Background(), 1)
	assert.Error(t, err)

	_, ok := store.Get("Room 1")
	assert.False(t, ok, "failed start must not leave a speculative record")
	assert.False(t, app.CanScore("Room 1"))
}

func TestStartTimerUnknownSchedule(t *testing.T) {
	starter := &stubStarter{}
	app, _, _ := newApp(starter)

	err := app.StartTimer(context.Background(), 99)
	assert.ErrorIs(t, err, judging.ErrUnknownSchedule)
	assert.Zero(t, starter.calls)
}

func TestReadModel(t *testing.T) {
	starter := &stubStarter{}
	app, store, clock := newApp(starter)

	assert.False(t, app.CanScore("Room 1"))
	_, ok := app.StageFor("Room 1")
	assert.False(t, ok)

	require.NoError(t, app.StartTimer(context.Background(), 1))
	assert.True(t, app.CanScore("Room 1"))

	stage, ok := app.StageFor("Room 1")
	require.True(t, ok)
	assert.Equal(t, session.StagePitching, stage)

	clock.Advance(245 * time.Second)
	stage, _ = app.StageFor("Room 1")
	assert.Equal(t, session.StageQA, stage)

	remaining, _ := app.RemainingSeconds("Room 1")
	assert.Equal(t, 115, remaining)

	// A stopped round exposes no stage or countdown but still gates
	// scoring open: the record exists.
	store.Upsert("Room 1", func(rt *timer.RoomTimer) {
		rt.Status = timer.StatusStopped
		rt.Remaining = 0
	})
	_, ok = app.RemainingSeconds("Room 1")
	assert.False(t, ok)
	_, ok = app.StageFor("Room 1")
	assert.False(t, ok)
	assert.True(t, app.CanScore("Room 1"))
}
