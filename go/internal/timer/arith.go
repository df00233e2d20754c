package timer

import "time"

// RemainingFromStart computes the whole-second remaining time of a
// round that began at start and runs for duration. A nil start means
// the round has not begun, so the full duration remains. The result is
// clamped to [0, duration].
func RemainingFromStart(start *time.Time, duration time.Duration, now time.Time) time.Duration {
	if start == nil {
		return duration
	}
	elapsed := now.Sub(*start) / time.Second * time.Second
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := duration - elapsed
	if remaining < 0 {
		return 0
	}
	if remaining > duration {
		return duration
	}
	return remaining
}

// RemainingAt computes the current remaining time for the timer. The
// second return is false when no meaningful countdown exists (stopped
// timer or nil receiver).
//
// Paused timers return the snapshot frozen at pause time. Running
// timers recompute from ActualStart, crediting back accumulated pause
// time so wall-clock pauses do not count against the round.
func (t *RoomTimer) RemainingAt(now time.Time) (time.Duration, bool) {
	if t == nil || t.Status == StatusStopped {
		return 0, false
	}
	if t.Status == StatusPaused {
		return t.Remaining, true
	}
	remaining := RemainingFromStart(t.ActualStart, t.Duration+t.PausedTotal, now)
	if remaining > t.Duration {
		remaining = t.Duration
	}
	return remaining, true
}

// Elapsed returns how far into the round the timer is, net of
// accumulated pause credit. Unlike Remaining it is not clamped to the
// round duration, so stage derivation can run past the nominal end.
func (t *RoomTimer) Elapsed(now time.Time) time.Duration {
	if t == nil {
		return 0
	}
	if t.Status == StatusPaused {
		return t.Duration - t.Remaining
	}
	if t.ActualStart == nil {
		return 0
	}
	elapsed := now.Sub(*t.ActualStart)/time.Second*time.Second - t.PausedTotal
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
