package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackmate/judgesync/go/internal/session"
)

func TestPitchingDuration(t *testing.T) {
	assert.Equal(t, 4*time.Minute, session.PitchingDuration(6*time.Minute))
	assert.Equal(t, time.Duration(0), session.PitchingDuration(2*time.Minute))
	assert.Equal(t, time.Duration(0), session.PitchingDuration(90*time.Second))
}

func TestStageAtSixMinuteRound(t *testing.T) {
	total := 6 * time.Minute

	cases := []struct {
		elapsed   time.Duration
		wantStage session.Stage
		wantLeft  time.Duration
	}{
		{0, session.StagePitching, 240 * time.Second},
		{1 * time.Second, session.StagePitching, 239 * time.Second},
		{239 * time.Second, session.StagePitching, time.Second},
		{240 * time.Second, session.StageQA, 60 * time.Second},
		{299 * time.Second, session.StageQA, time.Second},
		{300 * time.Second, session.StageBuffer, 60 * time.Second},
		{359 * time.Second, session.StageBuffer, time.Second},
		{360 * time.Second, session.StageComplete, 0},
		{400 * time.Second, session.StageComplete, 0},
	}

	for _, tc := range cases {
		stage, left := session.StageAt(total, tc.elapsed)
		assert.Equal(t, tc.wantStage, stage, "elapsed %v", tc.elapsed)
		assert.Equal(t, tc.wantLeft, left, "elapsed %v", tc.elapsed)
	}
}

func TestStageAtShortRoundSkipsPitching(t *testing.T) {
	// A 90 second round has no time for pitching: the fixed Q&A and
	// buffer stages still get their full minute each.
	stage, left := session.StageAt(90*time.Second, 0)
	assert.Equal(t, session.StageQA, stage)
	assert.Equal(t, 60*time.Second, left)

	stage, _ = session.StageAt(90*time.Second, 60*time.Second)
	assert.Equal(t, session.StageBuffer, stage)

	stage, _ = session.StageAt(90*time.Second, 120*time.Second)
	assert.Equal(t, session.StageComplete, stage)
}
