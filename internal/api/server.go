package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

const (
	// gracefulShutdownTimeout is the maximum time to wait for in-flight
	// requests during shutdown.
	gracefulShutdownTimeout = 10 * time.Second

	defaultInvokeTimeout = 5 * time.Second
)

// InvocationRecorder receives one record per remote method call.
type InvocationRecorder interface {
	WriteInvocation(method, outcome string, took time.Duration)
}

// Deps holds the dependencies of the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Metrics config.MetricsConfig
	Logger  *logging.Logger

	Network  *bus.Network
	Executor rpc.Executor

	// Applier performs label and facade changes. Nil builds one over
	// Network and Executor.
	Applier *replication.Applier

	// Hub is the tracker hub. Nil creates one on Start.
	Hub *Hub

	// Collector and Telemetry are optional invocation observers.
	Collector *metrics.Collector
	Telemetry InvocationRecorder

	// InvokeTimeout bounds one invocation or mutation, including the wait
	// for the bus loop.
	InvokeTimeout time.Duration

	// Schema, when set, is reported by the health route.
	Schema SchemaStatusFunc

	Version string
}

// SchemaStatusFunc reports how many database migrations are applied and
// how many are still pending.
type SchemaStatusFunc func(ctx context.Context) (applied, pending int, err error)

// Server is the HTTP API server.
type Server struct {
	cfg           config.APIConfig
	wsCfg         config.WebSocketConfig
	metricsCfg    config.MetricsConfig
	logger        *logging.Logger
	net           *bus.Network
	exec          rpc.Executor
	applier       *replication.Applier
	collector     *metrics.Collector
	telemetry     InvocationRecorder
	invokeTimeout time.Duration
	schema        SchemaStatusFunc
	version       string

	mu       sync.Mutex
	hub      *Hub
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates an API server. It is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Network == nil {
		return nil, fmt.Errorf("bus network is required")
	}
	if deps.Executor == nil {
		deps.Executor = rpc.DirectExecutor{}
	}
	if deps.Applier == nil {
		deps.Applier = replication.NewApplier(deps.Network.World(), deps.Executor)
	}
	if deps.InvokeTimeout <= 0 {
		deps.InvokeTimeout = defaultInvokeTimeout
	}

	s := &Server{
		cfg:           deps.Config,
		wsCfg:         deps.WS,
		metricsCfg:    deps.Metrics,
		logger:        deps.Logger,
		net:           deps.Network,
		exec:          deps.Executor,
		applier:       deps.Applier,
		collector:     deps.Collector,
		telemetry:     deps.Telemetry,
		invokeTimeout: deps.InvokeTimeout,
		schema:        deps.Schema,
		version:       deps.Version,
		hub:           deps.Hub,
	}
	if s.hub != nil {
		s.hub.SetSnapshots(s.snapshot)
	}
	return s, nil
}

// Hub returns the tracker hub, or nil before Start when none was injected.
func (s *Server) Hub() *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	srvCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.hub.SetSnapshots(s.snapshot)
	}
	hub := s.hub
	s.mu.Unlock()
	go hub.Run(srvCtx)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts it
// down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.server = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if srv == nil {
		return nil
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
