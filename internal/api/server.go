package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/emojicoin/indexer/internal/broker"
	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/metrics"
	"github.com/emojicoin/indexer/internal/version"
)

// Status is the /health response body.
type Status struct {
	Version              string       `json:"version"`
	LastCommittedVersion int64        `json:"last_committed_version"`
	Broker               broker.Stats `json:"broker"`
}

// StatusFunc supplies the current pipeline status for the health endpoint.
type StatusFunc func() Status

// Server exposes /health and the Prometheus metrics endpoint.
type Server struct {
	cfg     config.APIConfig
	status  StatusFunc
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer creates the operational HTTP server.
func NewServer(cfg config.APIConfig, status StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, status: status, logger: logger}
}

// Start binds the listener and serves in the background. A bind failure is
// returned synchronously.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle(s.cfg.MetricsPath, metrics.Handler())

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind api listener on %s: %w", addr, err)
	}

	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server stopped", "error", err)
		}
	}()

	s.logger.Info("api listening", "addr", addr, "metrics_path", s.cfg.MetricsPath)
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := Status{Version: version.String()}
	if s.status != nil {
		status = s.status()
		status.Version = version.String()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Warn("write health response", "error", err)
	}
}
