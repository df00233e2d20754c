// Package judgeapi is the REST client for the event backend. Only the
// endpoints the timer core consumes are wrapped: the judge's assigned
// schedule and the admin start-timer action.
package judgeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a judge-scoped HTTP client for the event backend.
type Client struct {
	baseURL string
	judgeID string
	client  *http.Client
	headers map[string]string
}

// New creates a client for the backend at baseURL acting as judgeID.
func New(baseURL, judgeID string) *Client {
	return &Client{
		baseURL: baseURL,
		judgeID: judgeID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
}

// SetHeader sets a header sent on every request (e.g. Authorization).
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return responseBody, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.makeRequest(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.makeRequest(ctx, http.MethodPost, endpoint, body)
}

// startTimerRequest is the body of the start-timer-by-room action.
type startTimerRequest struct {
	Room              string    `json:"room"`
	JudgingScheduleID int64     `json:"judging_schedule_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// StartRoomTimer asks the backend to start broadcasting start_timer
// events for room. The backend returns no state; confirmation arrives
// through the realtime channel.
func (c *Client) StartRoomTimer(ctx context.Context, room string, scheduleID int64, startedAt time.Time) error {
	req := startTimerRequest{
		Room:              room,
		JudgingScheduleID: scheduleID,
		Timestamp:         startedAt,
	}
	if _, err := c.post(ctx, "/rooms/"+url.PathEscape(room)+"/timer/start", req); err != nil {
		return fmt.Errorf("start timer for room %q: %w", room, err)
	}
	return nil
}
