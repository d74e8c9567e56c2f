package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/event"
	"github.com/emojicoin/indexer/internal/pubsub"
)

// Stats is a snapshot of the broker's connection counters.
type Stats struct {
	Connections   int64 `json:"connections"`
	Sent          int64 `json:"sent"`
	Dropped       int64 `json:"dropped"`
	BadMessages   int64 `json:"bad_messages"`
	TotalAccepted int64 `json:"total_accepted"`
}

// Server accepts WebSocket subscribers and routes derived events to them.
type Server struct {
	cfg    config.BrokerConfig
	hub    *pubsub.Hub
	logger *slog.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	connections   atomic.Int64
	sent          atomic.Int64
	badMessages   atomic.Int64
	totalAccepted atomic.Int64

	wg sync.WaitGroup
}

// NewServer creates a broker on the given hub.
func NewServer(cfg config.BrokerConfig, hub *pubsub.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Subscribers are dapps and bots from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start listens and serves until Stop. It returns once the listener is
// bound, so callers can treat a bind failure as a startup error.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind broker listener on %s: %w", addr, err)
	}

	s.httpSrv = &http.Server{Handler: mux}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("broker server stopped", "error", err)
		}
	}()

	s.logger.Info("broker listening", "addr", addr, "path", s.cfg.Path)
	return nil
}

// Stop shuts the listener down and waits for connection tasks to finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("broker stop timed out")
	}
	return err
}

// Stats returns the current counters.
func (s *Server) Stats() Stats {
	return Stats{
		Connections:   s.connections.Load(),
		Sent:          s.sent.Load(),
		Dropped:       s.hub.Dropped(),
		BadMessages:   s.badMessages.Load(),
		TotalAccepted: s.totalAccepted.Load(),
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &conn{
		id:     uuid.New(),
		server: s,
		ws:     ws,
		sub:    s.hub.Subscribe(),
	}
	c.logger = s.logger.With("conn_id", c.id.String())

	s.connections.Add(1)
	s.totalAccepted.Add(1)
	c.logger.Debug("connection accepted", "remote", r.RemoteAddr)

	s.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
}

// conn is one subscriber connection. The filter is an immutable snapshot
// replaced wholesale by the read loop and loaded by the write loop, so the
// two tasks never share a mutable structure. A nil filter means the client
// has not sent its first subscription message; nothing is delivered yet.
type conn struct {
	id     uuid.UUID
	server *Server
	ws     *websocket.Conn
	sub    *pubsub.Subscriber
	logger *slog.Logger

	filter  atomic.Pointer[Subscription]
	writeMu sync.Mutex
	closed  atomic.Bool
}

func (c *conn) close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.server.hub.Unsubscribe(c.sub)
	c.ws.Close()
	c.server.connections.Add(-1)
	c.logger.Debug("connection closed")
}

// readLoop applies subscription updates from the client. Any malformed
// message closes the connection.
func (c *conn) readLoop() {
	defer c.server.wg.Done()
	defer c.close()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			c.logger.Warn("non-text message from client, closing")
			c.server.badMessages.Add(1)
			return
		}

		msg, err := ParseSubscriptionMessage(data)
		if err != nil {
			c.logger.Warn("invalid subscription message, closing", "error", err)
			c.server.badMessages.Add(1)
			return
		}

		// Copy-on-write keeps the write loop lock-free.
		next := NewSubscription()
		if cur := c.filter.Load(); cur != nil {
			next = cur.clone()
		}
		next.Apply(msg)
		c.filter.Store(next)
		c.logger.Debug("subscription updated")
	}
}

// writeLoop forwards matching events and keeps the connection alive with
// pings. It exits when the hub subscription is closed or a write fails.
func (c *conn) writeLoop() {
	defer c.server.wg.Done()
	defer c.close()

	ticker := time.NewTicker(c.server.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.sub.C:
			if !ok {
				return
			}
			f := c.filter.Load()
			if f == nil || !isMatch(f, ev) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				c.logger.Error("marshal derived event", "event_type", ev.Type, "error", err)
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed, closing", "error", err)
				return
			}
			c.server.sent.Add(1)
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) write(kind int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.server.cfg.WriteTimeout))
	return c.ws.WriteMessage(kind, data)
}

func (s *Subscription) clone() *Subscription {
	next := &Subscription{
		Markets:       make(map[uint64]struct{}, len(s.Markets)),
		EventTypes:    make(map[pubsub.EventType]struct{}, len(s.EventTypes)),
		MarketPeriods: make(map[MarketPeriod]struct{}, len(s.MarketPeriods)),
		Arena:         s.Arena,
		ArenaPeriods:  make(map[event.Period]struct{}, len(s.ArenaPeriods)),
	}
	for k := range s.Markets {
		next.Markets[k] = struct{}{}
	}
	for k := range s.EventTypes {
		next.EventTypes[k] = struct{}{}
	}
	for k := range s.MarketPeriods {
		next.MarketPeriods[k] = struct{}{}
	}
	for k := range s.ArenaPeriods {
		next.ArenaPeriods[k] = struct{}{}
	}
	return next
}
