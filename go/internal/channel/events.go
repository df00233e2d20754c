package channel

import (
	"encoding/json"
	"time"
)

// Envelope is the outer shape of every inbound push message. Type
// discriminates; only judge messages carry timer actions. Unknown types
// are ignored so the backend can add message kinds without breaking
// deployed clients.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessageTypeJudge is the only envelope type this client processes.
const MessageTypeJudge = "judge"

// Action is an admin-triggered timer command.
type Action string

const (
	ActionStartTimer Action = "start_timer"
	ActionPauseTimer Action = "pause_timer"
	ActionStopTimer  Action = "stop_timer"
)

// JudgePayload is the inner payload of a judge message. The events are
// intentionally thin: room may be absent and duration never travels on
// the wire, so both get resolved against the cached schedule.
type JudgePayload struct {
	Action            Action     `json:"action"`
	Room              string     `json:"room,omitempty"`
	JudgingScheduleID *int64     `json:"judging_schedule_id,omitempty"`
	TeamID            *int64     `json:"team_id,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
}

// ParseJudgePayload decodes the inner payload of a judge envelope.
func ParseJudgePayload(env *Envelope) (JudgePayload, error) {
	var payload JudgePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return JudgePayload{}, err
	}
	return payload, nil
}
