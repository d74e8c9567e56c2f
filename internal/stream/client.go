package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/metrics"
)

var (
	// ErrRetryBudgetExhausted is returned by Run when consecutive failed
	// connections exceed the configured budget.
	ErrRetryBudgetExhausted = errors.New("feed retry budget exhausted")

	// ErrVersionGap is the session-fatal error for a non-contiguous batch.
	ErrVersionGap = errors.New("version gap in transaction feed")
)

const handshakeTimeout = 10 * time.Second

// streamRequest is the frame sent after dialing to position the feed cursor.
type streamRequest struct {
	StartingVersion int64  `json:"starting_version"`
	EndingVersion   *int64 `json:"ending_version,omitempty"`
}

// Client pulls contiguous transaction batches from the upstream feed and
// delivers them on a bounded channel. The channel applies backpressure: when
// the processor falls behind, reads from the socket stall.
type Client struct {
	cfg     config.FeedConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	batches chan *event.Batch
}

// NewClient creates a feed client. The metrics handle may be nil.
func NewClient(cfg config.FeedConfig, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		batches: make(chan *event.Batch, cfg.ChannelBuffer),
	}
}

// Batches returns the output channel. It is closed when Run returns.
func (c *Client) Batches() <-chan *event.Batch {
	return c.batches
}

// Run streams from fromVersion until the context is cancelled or the retry
// budget runs out. Each failed session reconnects from the next version not
// yet delivered, so a gap never reaches the processor.
func (c *Client) Run(ctx context.Context, fromVersion int64) error {
	return c.run(ctx, fromVersion, nil)
}

// RunRange streams the closed version range [fromVersion, toVersion] and
// returns nil once the last version has been delivered.
func (c *Client) RunRange(ctx context.Context, fromVersion, toVersion int64) error {
	return c.run(ctx, fromVersion, &toVersion)
}

func (c *Client) run(ctx context.Context, fromVersion int64, toVersion *int64) error {
	defer close(c.batches)

	next := fromVersion
	retries := 0

	for {
		startedAt := time.Now()
		err := c.session(ctx, &next, toVersion)

		switch {
		case err == nil:
			// Range complete.
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		if time.Since(startedAt) >= c.cfg.HealthyDuration {
			retries = 0
		}
		retries++
		if c.metrics != nil {
			c.metrics.FeedReconnects.Inc()
		}
		if retries > c.cfg.RetryBudget {
			return fmt.Errorf("%w after %d attempts: %v", ErrRetryBudgetExhausted, retries-1, err)
		}

		delay := c.cfg.ReconnectLongDelay
		if retries == 1 {
			delay = c.cfg.ReconnectShortDelay
		}
		c.logger.Warn("feed session ended, reconnecting",
			"error", err,
			"next_version", next,
			"attempt", retries,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// session dials, positions the cursor at *next, and reads batches until the
// socket fails, a gap is detected, or the range is exhausted. It advances
// *next past every batch it delivered. A nil return means the range ended.
func (c *Client) session(ctx context.Context, next *int64, toVersion *int64) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", c.cfg.URL, err)
	}
	defer ws.Close()

	// Closing the socket on cancellation unblocks ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()

	ws.SetPingHandler(func(data string) error {
		return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	req := streamRequest{StartingVersion: *next, EndingVersion: toVersion}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal stream request: %w", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send stream request: %w", err)
	}

	c.logger.Info("feed connected", "url", c.cfg.URL, "from_version", *next)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read feed message: %w", err)
		}

		var batch event.Batch
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("parse batch: %w", err)
		}
		if len(batch.Transactions) == 0 {
			return errors.New("empty batch from feed")
		}
		if err := checkContiguity(&batch, *next); err != nil {
			if c.metrics != nil {
				c.metrics.FeedGaps.Inc()
			}
			return err
		}

		select {
		case c.batches <- &batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		*next = batch.LastVersion() + 1

		if toVersion != nil && *next > *toVersion {
			return nil
		}
	}
}

// checkContiguity verifies the batch starts at the expected version and has
// no internal gaps.
func checkContiguity(batch *event.Batch, expected int64) error {
	if got := batch.FirstVersion(); got != expected {
		return fmt.Errorf("%w: expected version %d, got %d", ErrVersionGap, expected, got)
	}
	for i := 1; i < len(batch.Transactions); i++ {
		prev := batch.Transactions[i-1].Version
		if batch.Transactions[i].Version != prev+1 {
			return fmt.Errorf("%w: expected version %d, got %d",
				ErrVersionGap, prev+1, batch.Transactions[i].Version)
		}
	}
	return nil
}
