package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher republishes the derived-event stream to NATS subjects named
// <prefix>.<event type>, e.g. emojicoin.Candlestick. It is an optional side
// channel next to the WebSocket broker.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to the NATS server. The connection reconnects
// indefinitely on failure.
func NewNATSPublisher(url, subjectPrefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("emojicoin-indexer"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{nc: nc, subject: subjectPrefix, logger: logger}, nil
}

// Run consumes a hub subscription until the context ends or the hub closes
// the subscription. Marshal or publish failures are logged and skipped; the
// stream is at-most-once for external subscribers.
func (p *NATSPublisher) Run(ctx context.Context, sub *Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("marshal derived event", "event_type", ev.Type, "error", err)
				continue
			}
			subject := fmt.Sprintf("%s.%s", p.subject, ev.Type)
			if err := p.nc.Publish(subject, data); err != nil {
				p.logger.Warn("nats publish failed", "subject", subject, "error", err)
			}
		}
	}
}

// Ready reports whether the connection is currently established.
func (p *NATSPublisher) Ready() bool {
	return p.nc.Status() == nats.CONNECTED
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc.Status() == nats.CLOSED {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Error("drain nats connection", "error", err)
		p.nc.Close()
	}
}
