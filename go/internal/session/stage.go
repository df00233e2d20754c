package session

import "time"

// Stage is the current phase of a judging round. Progression is
// linear: pitching, Q&A, buffer, complete. No loops, no skipping.
type Stage string

const (
	StagePitching Stage = "pitching"
	StageQA       Stage = "qa"
	StageBuffer   Stage = "buffer"
	StageComplete Stage = "complete"
)

// Fixed tail-stage lengths. Pitching takes whatever the round leaves
// after them.
const (
	QADuration     = time.Minute
	BufferDuration = time.Minute
)

// PitchingDuration is the pitching stage length for a round of the
// given total duration: everything before the fixed Q&A and buffer
// tail, floored at zero for very short rounds.
func PitchingDuration(total time.Duration) time.Duration {
	p := total - QADuration - BufferDuration
	if p < 0 {
		return 0
	}
	return p
}

// StageAt derives the stage and time remaining within it from the
// round's total duration and net elapsed time. It is a pure function:
// deriving from (store state, now) on every tick instead of decrementing
// a local counter means the display can never drift from the
// authoritative timer, and snaps automatically when a channel event
// rewrites the store.
func StageAt(total, elapsed time.Duration) (Stage, time.Duration) {
	pitching := PitchingDuration(total)
	qaEnd := pitching + QADuration
	bufferEnd := qaEnd + BufferDuration

	switch {
	case elapsed < pitching:
		return StagePitching, pitching - elapsed
	case elapsed < qaEnd:
		return StageQA, qaEnd - elapsed
	case elapsed < bufferEnd:
		return StageBuffer, bufferEnd - elapsed
	default:
		return StageComplete, 0
	}
}
