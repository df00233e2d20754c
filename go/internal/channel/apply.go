package channel

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/timer"
)

// Apply translates one judge event into a store update.
//
// Events are thin, so two resolution steps run first: the room key
// (explicit field, else schedule lookup, else team id) and the round
// duration (cached schedule metadata). An event whose duration cannot
// be resolved is dropped and a schedule refetch is requested; the next
// event or poll self-heals with fresh metadata.
func (c *Client) Apply(p JudgePayload) {
	room := c.resolveRoom(p)
	if room == "" {
		log.Warn().
			Str("action", string(p.Action)).
			Msg("dropping timer event: no room resolvable")
		return
	}

	duration, ok := c.resolveDuration(p, room)
	if !ok {
		log.Warn().
			Str("room", room).
			Str("action", string(p.Action)).
			Msg("dropping timer event: unknown round duration, refetching schedule")
		c.schedules.Refresh()
		return
	}

	now := c.clock.Now()
	eventTime := now
	if p.Timestamp != nil {
		eventTime = *p.Timestamp
	}

	switch p.Action {
	case ActionStartTimer:
		c.applyStart(p, room, duration, eventTime)
	case ActionPauseTimer:
		_, applied := c.store.UpsertIfNewer(room, eventTime, func(t *timer.RoomTimer) {
			t.Duration = duration
			if remaining, ok := t.RemainingAt(now); ok {
				t.Remaining = remaining
			}
			t.Status = timer.StatusPaused
			t.LastSyncedAt = now
			t.Origin = timer.OriginConfirmed
			c.stampIDs(t, p)
		})
		logApplied(applied, room, p.Action)
	case ActionStopTimer:
		_, applied := c.store.UpsertIfNewer(room, eventTime, func(t *timer.RoomTimer) {
			t.Duration = duration
			t.Remaining = 0
			t.Status = timer.StatusStopped
			t.LastSyncedAt = now
			t.Origin = timer.OriginConfirmed
			c.stampIDs(t, p)
		})
		logApplied(applied, room, p.Action)
	default:
		log.Warn().
			Str("action", string(p.Action)).
			Str("room", room).
			Msg("ignoring unknown timer action")
	}
}

// applyStart handles both a fresh round start and a resume after
// pause. Resume preserves the frozen remaining snapshot exactly and
// credits the paused wall-clock time back, so pause and resume round
// trips lose no displayed time.
func (c *Client) applyStart(p JudgePayload, room string, duration time.Duration, eventTime time.Time) {
	now := c.clock.Now()
	_, applied := c.store.UpsertIfNewer(room, eventTime, func(t *timer.RoomTimer) {
		if t.Status == timer.StatusPaused {
			pausedFor := now.Sub(t.LastSyncedAt)
			if pausedFor > 0 {
				t.PausedTotal += pausedFor
			}
		} else {
			if p.Timestamp != nil {
				t.ActualStart = p.Timestamp
			} else if t.ActualStart == nil {
				start := now
				t.ActualStart = &start
			}
			t.PausedTotal = 0
			t.Remaining = timer.RemainingFromStart(t.ActualStart, duration, now)
		}
		t.Duration = duration
		t.Status = timer.StatusRunning
		t.LastSyncedAt = now
		t.Origin = timer.OriginConfirmed
		c.stampIDs(t, p)
	})
	logApplied(applied, room, p.Action)
}

func (c *Client) resolveRoom(p JudgePayload) string {
	if p.Room != "" {
		return p.Room
	}
	if p.JudgingScheduleID != nil {
		if entry, ok := c.schedules.Lookup(*p.JudgingScheduleID); ok && entry.Room != "" {
			return entry.Room
		}
	}
	if p.TeamID != nil {
		if room, ok := c.schedules.RoomForTeam(*p.TeamID); ok {
			return room
		}
		return strconv.FormatInt(*p.TeamID, 10)
	}
	return ""
}

// resolveDuration prefers cached schedule metadata, falling back to the
// room's existing record for events that carry no schedule reference.
func (c *Client) resolveDuration(p JudgePayload, room string) (time.Duration, bool) {
	if p.JudgingScheduleID != nil {
		entry, ok := c.schedules.Lookup(*p.JudgingScheduleID)
		if !ok {
			return 0, false
		}
		return entry.Duration, true
	}
	if existing, ok := c.store.Get(room); ok && existing.Duration > 0 {
		return existing.Duration, true
	}
	return 0, false
}

func (c *Client) stampIDs(t *timer.RoomTimer, p JudgePayload) {
	if p.JudgingScheduleID != nil {
		t.JudgingScheduleID = p.JudgingScheduleID
	}
	if p.TeamID != nil {
		t.TeamID = p.TeamID
	}
}

func logApplied(applied bool, room string, action Action) {
	if !applied {
		return
	}
	log.Info().
		Str("room", room).
		Str("action", string(action)).
		Msg("applied timer event")
}
