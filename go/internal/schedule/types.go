package schedule

import (
	"encoding/json"
	"time"
)

// Location is a judging room name. The backend serializes it either as
// a bare string or as a structured object, so it is normalized here at
// the boundary; nothing past this package branches on the wire shape.
type Location string

type locationObject struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// UnmarshalJSON accepts both `"Room 4"` and `{"name": "Room 4"}`.
func (l *Location) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Location(s)
		return nil
	}

	var obj locationObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name != "" {
		*l = Location(obj.Name)
	} else {
		*l = Location(obj.Room)
	}
	return nil
}

// JudgingScheduleItem is one assigned judging slot as returned by the
// backend. Duration is in minutes.
type JudgingScheduleItem struct {
	JudgingScheduleID int64      `json:"judging_schedule_id"`
	TeamID            int64      `json:"team_id"`
	JudgeID           string     `json:"judge_id"`
	Location          Location   `json:"location"`
	Timestamp         *time.Time `json:"timestamp"`
	ActualTimestamp   *time.Time `json:"actual_timestamp"`
	Duration          int        `json:"duration"`
}

// DurationSeconds converts the slot's minute-based duration.
func (i JudgingScheduleItem) DurationSeconds() time.Duration {
	return time.Duration(i.Duration) * time.Minute
}

// Entry is the cached metadata the realtime channel needs to interpret
// a thin timer event: which room a schedule runs in and how long it is.
type Entry struct {
	Room     string
	Duration time.Duration
	TeamID   int64
}
