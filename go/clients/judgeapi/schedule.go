package judgeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hackmate/judgesync/go/internal/schedule"
)

// FetchJudgingSchedule returns the judge's assigned judging sessions.
func (c *Client) FetchJudgingSchedule(ctx context.Context) ([]schedule.JudgingScheduleItem, error) {
	body, err := c.get(ctx, "/judges/"+url.PathEscape(c.judgeID)+"/schedule")
	if err != nil {
		return nil, fmt.Errorf("fetch judging schedule: %w", err)
	}

	var items []schedule.JudgingScheduleItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode judging schedule: %w", err)
	}
	return items, nil
}
