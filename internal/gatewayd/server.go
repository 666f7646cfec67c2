package gatewayd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/infrastructure/config"
	"github.com/citysense/citysense-core/internal/infrastructure/influxdb"
	"github.com/citysense/citysense-core/internal/infrastructure/logging"
	"github.com/citysense/citysense-core/internal/reading"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the gateway server.
type Deps struct {
	Config   config.GatewayConfig
	Logger   *logging.Logger
	Devices  device.Repository
	Readings reading.Repository
	Mirror   *influxdb.Client // optional telemetry mirror
	Version  string
}

// Server is the HTTP gateway serving the device and sensor-data API.
//
// It is created with New() and started with Start(); Close() drains
// in-flight requests before returning.
type Server struct {
	cfg      config.GatewayConfig
	logger   *logging.Logger
	devices  device.Repository
	readings reading.Repository
	mirror   *influxdb.Client
	version  string
	server   *http.Server
}

// New creates a gateway server with the given dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Readings == nil {
		return nil, fmt.Errorf("reading repository is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		devices:  deps.Devices,
		readings: deps.Readings,
		mirror:   deps.Mirror,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("gateway server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the gateway server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down gateway server: %w", err)
	}
	return nil
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
