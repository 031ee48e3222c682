package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/link"
)

const (
	// gracefulShutdownTimeout is the maximum time to wait for in-flight
	// requests to complete during shutdown.
	gracefulShutdownTimeout = 5 * time.Second

	// healthCheckTimeout bounds each dependency check made by /health.
	healthCheckTimeout = 2 * time.Second
)

// StateSource reports the last applied device state. It must be safe for
// concurrent use.
type StateSource interface {
	Current() device.Snapshot
	Variant() device.Variant
}

// LinkSource reports the broker session state.
type LinkSource interface {
	State() link.State
}

// HealthChecker is a dependency checked by /health. The MQTT client, the
// history database and the InfluxDB client satisfy it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	ClientID string
	State    StateSource
	Link     LinkSource

	// History is optional; /api/v1/history answers 503 without it.
	History device.StateHistoryRepository

	// Metrics is optional; /metrics is not routed without it.
	Metrics http.Handler

	// Checks are run by /health, keyed by the name reported. Nil values
	// are skipped.
	Checks map[string]HealthChecker

	Version string
}

// Server is the status HTTP server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	clientID string
	state    StateSource
	link     LinkSource
	history  device.StateHistoryRepository
	metrics  http.Handler
	checks   map[string]HealthChecker
	version  string

	server   *http.Server
	listener net.Listener

	closeOnce sync.Once
	closeErr  error
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("state source is required")
	}
	if deps.Link == nil {
		return nil, fmt.Errorf("link source is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		clientID: deps.ClientID,
		state:    deps.State,
		link:     deps.Link,
		history:  deps.History,
		metrics:  deps.Metrics,
		checks:   deps.Checks,
		version:  deps.Version,
	}, nil
}

// Start binds the listener and serves in a background goroutine. The
// listener is closed by Close, or when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Close(); err != nil {
			s.logger.Warn("API server shutdown", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, waiting up to five seconds
// for in-flight requests. Later calls return the first result.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			s.closeErr = fmt.Errorf("shutting down API server: %w", err)
		}
	})
	return s.closeErr
}
