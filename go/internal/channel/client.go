package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hackmate/judgesync/go/internal/schedule"
	"github.com/hackmate/judgesync/go/internal/timer"
)

// ScheduleCache is what the client needs from the schedule reconciler:
// metadata lookups for thin events and a way to request a refetch when
// a lookup misses.
type ScheduleCache interface {
	Lookup(scheduleID int64) (schedule.Entry, bool)
	RoomForTeam(teamID int64) (string, bool)
	Refresh()
}

// Config holds configuration for the realtime timer event channel.
type Config struct {
	// EndpointURL is the WebSocket endpoint. Empty disables the
	// channel entirely; the client idles instead of retrying a URL
	// that cannot exist.
	EndpointURL string
	// JudgeID scopes the connection to one judge via query parameter.
	// Empty likewise disables the channel.
	JudgeID string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration

	// BackoffStep and MaxBackoff shape the reconnect delay:
	// min(MaxBackoff, (attempt+1) * BackoffStep).
	BackoffStep time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig returns the default channel configuration.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		BackoffStep:      2 * time.Second,
		MaxBackoff:       30 * time.Second,
	}
}

// Client maintains the judge-scoped push connection and translates
// inbound timer events into store updates. It reconnects with linear
// backoff on any drop and never propagates a bad payload as a crash.
type Client struct {
	cfg        Config
	store      *timer.Store
	schedules  ScheduleCache
	clock      clockwork.Clock
	dialer     *websocket.Dialer
	instanceID string
}

// NewClient creates a channel client. It does not connect until Run.
func NewClient(cfg Config, store *timer.Store, schedules ScheduleCache, clock clockwork.Clock) *Client {
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Client{
		cfg:       cfg,
		store:     store,
		schedules: schedules,
		clock:     clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		instanceID: uuid.New().String()[:8],
	}
}

// Run connects and processes events until ctx is cancelled. A missing
// endpoint or judge identity leaves the channel idle for the life of
// the context: the feature is disabled, not failing.
func (c *Client) Run(ctx context.Context) error {
	if c.cfg.EndpointURL == "" || c.cfg.JudgeID == "" {
		log.Info().Str("instance", c.instanceID).Msg("realtime channel disabled: no endpoint or judge identity")
		<-ctx.Done()
		return nil
	}

	endpoint, err := c.buildURL()
	if err != nil {
		log.Error().Err(err).Str("endpoint", c.cfg.EndpointURL).Msg("invalid channel endpoint, channel disabled")
		<-ctx.Done()
		return nil
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("instance", c.instanceID).
				Msg("channel dial failed")
			if !c.waitBackoff(ctx, attempt) {
				return nil
			}
			attempt++
			continue
		}

		// Successful open resets the backoff counter.
		attempt = 0
		log.Info().
			Str("instance", c.instanceID).
			Str("judge_id", c.cfg.JudgeID).
			Msg("channel connected")

		c.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}

		log.Warn().Str("instance", c.instanceID).Msg("channel connection lost, reconnecting")
		if !c.waitBackoff(ctx, attempt) {
			return nil
		}
		attempt++
	}
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.cfg.EndpointURL)
	if err != nil {
		return "", fmt.Errorf("parse channel endpoint: %w", err)
	}
	q := u.Query()
	q.Set("judge_id", c.cfg.JudgeID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// waitBackoff sleeps min(MaxBackoff, (attempt+1)*BackoffStep) on the
// injected clock. Returns false if ctx was cancelled while waiting.
func (c *Client) waitBackoff(ctx context.Context, attempt int) bool {
	delay := time.Duration(attempt+1) * c.cfg.BackoffStep
	if delay > c.cfg.MaxBackoff {
		delay = c.cfg.MaxBackoff
	}

	t := c.clock.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// readLoop reads messages until the connection drops or ctx is
// cancelled. Teardown order matters: the ctx watcher closes the socket
// to unblock the reader, and the reader checks ctx before applying
// anything, so no event mutates state after shutdown begins.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	if c.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
			return nil
		})
	}

	if c.cfg.PingInterval > 0 {
		go c.pingLoop(ctx, conn, done)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("instance", c.instanceID).Msg("channel read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.handleMessage(message)
	}
}

// pingLoop keeps the connection alive with periodic pings, mirroring
// the server's ping/pong liveness checks.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes and dispatches one inbound message. Malformed
// payloads and unknown types are logged and dropped; they never reach
// the store and never panic.
func (c *Client) handleMessage(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Error().Err(err).Str("instance", c.instanceID).Msg("malformed channel message")
		return
	}

	if env.Type != MessageTypeJudge {
		log.Debug().Str("type", env.Type).Msg("ignoring unrecognized channel message type")
		return
	}

	payload, err := ParseJudgePayload(&env)
	if err != nil {
		log.Error().Err(err).Msg("malformed judge payload")
		return
	}

	c.Apply(payload)
}
