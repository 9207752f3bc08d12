// Package server runs the agent: it accepts control channels on the configured
// transport and drives one controller per session.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bnema/screenctl/internal/config"
	"github.com/bnema/screenctl/internal/controller"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/bnema/screenctl/internal/metrics"
	"github.com/bnema/screenctl/internal/network"
)

// InjectorFactory creates the injector for a new session
type InjectorFactory func() (input.Injector, error)

// ObserverFactory creates a per-session observer
type ObserverFactory func(sessionID string) controller.Observer

// Option configures a Server
type Option func(*Server)

// WithInjectorFactory replaces the configured injector backend
func WithInjectorFactory(f InjectorFactory) Option {
	return func(s *Server) { s.newInjector = f }
}

// WithClock replaces the controllers' monotonic clock
func WithClock(clock controller.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithObserverFactory attaches an observer to every session
func WithObserverFactory(f ObserverFactory) Option {
	return func(s *Server) { s.observers = append(s.observers, f) }
}

// WithMetrics records session activity in collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) { s.metrics = collector }
}

// WithReleaseFile overrides the emergency release trigger file
func WithReleaseFile(path string) Option {
	return func(s *Server) { s.releaseFile = path }
}

// Server is the device-side agent
type Server struct {
	config      *config.Config
	newInjector InjectorFactory
	clock       controller.Clock
	observers   []ObserverFactory
	metrics     *metrics.Collector
	releaseFile string

	sessions   *SessionManager
	listener   network.Listener
	httpServer *network.HTTPServer
	emergency  *EmergencyRelease
}

// New creates the agent for cfg
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		sessions: NewSessionManager(),
	}
	s.newInjector = func() (input.Injector, error) {
		return input.NewInjector(input.Options{
			Backend:    cfg.Injector.Backend,
			DeviceName: cfg.Injector.DeviceName,
			Width:      int32(cfg.Injector.Width),
			Height:     int32(cfg.Injector.Height),
		})
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initNetwork(); err != nil {
		return nil, fmt.Errorf("failed to initialize network: %w", err)
	}
	s.emergency = NewEmergencyRelease(s.sessions, s.releaseFile)
	return s, nil
}

// initNetwork creates the listener for the configured transport
func (s *Server) initNetwork() error {
	agent := s.config.Agent
	address := net.JoinHostPort(agent.ListenAddress, strconv.Itoa(agent.Port))

	var metricsHandler network.HTTPOption
	if s.metrics != nil && s.config.Metrics.Enabled {
		metricsHandler = network.WithMetricsHandler(s.metrics.Handler())
	}

	switch agent.Transport {
	case config.TransportTCP:
		s.listener = network.NewServer("tcp", address, agent.MaxSessions, s.handleSession)
	case config.TransportUnix:
		path := expandPath(agent.SocketPath)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create socket directory: %w", err)
		}
		s.listener = network.NewServer("unix", path, agent.MaxSessions, s.handleSession)
	case config.TransportSSH:
		hostKeyPath := expandPath(agent.SSHHostKeyPath)
		if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0700); err != nil {
			return fmt.Errorf("failed to create host key directory: %w", err)
		}
		s.listener = network.NewSSHServer(address, hostKeyPath, agent.MaxSessions, s.authorizer(), s.handleSession)
	case config.TransportWebSocket:
		opts := []network.HTTPOption{network.WithControlEndpoint(agent.MaxSessions, s.handleSession)}
		if metricsHandler != nil && s.config.Metrics.Address == address {
			// metrics share the control endpoint's server
			opts = append(opts, metricsHandler)
			metricsHandler = nil
		}
		s.listener = network.NewHTTPServer(address, opts...)
	default:
		return fmt.Errorf("unsupported transport %q", agent.Transport)
	}

	if metricsHandler != nil {
		s.httpServer = network.NewHTTPServer(s.config.Metrics.Address, metricsHandler)
	}
	return nil
}

// authorizer returns the SSH key check, nil when any key is accepted
func (s *Server) authorizer() network.KeyAuthorizer {
	if !s.config.Agent.SSHWhitelistOnly {
		return nil
	}
	whitelist := s.config.Agent.SSHWhitelist
	return func(addr, fingerprint string) bool {
		return slices.Contains(whitelist, fingerprint)
	}
}

// Start begins accepting sessions
func (s *Server) Start(ctx context.Context) error {
	if err := s.listener.Start(ctx); err != nil {
		return err
	}
	if s.httpServer != nil {
		if err := s.httpServer.Start(ctx); err != nil {
			s.listener.Stop()
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Infof("Metrics available at http://%s/metrics", s.httpServer.Address())
	}
	s.emergency.Start()

	logger.Info("agent listening", "transport", s.config.Agent.Transport, "address", s.listener.Address())
	return nil
}

// Stop ends every session and stops the listeners
func (s *Server) Stop() {
	s.emergency.Stop()
	s.listener.Stop()
	if s.httpServer != nil {
		s.httpServer.Stop()
	}
}

// Address returns the control listener address
func (s *Server) Address() string {
	return s.listener.Address()
}

// MetricsAddress returns the metrics server address, empty when it is not running
func (s *Server) MetricsAddress() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Address()
}

// Sessions returns the registry of running sessions
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// handleSession runs one controller on the calling goroutine until its stream ends
func (s *Server) handleSession(ch io.ReadCloser, remoteAddr string) {
	id := s.sessions.NextID()
	log := logger.With("session", id)

	injector, err := s.newInjector()
	if err != nil {
		log.Error("failed to create injector", "err", err)
		return
	}

	opts := []controller.Option{
		controller.WithLogger(log),
		controller.WithBufferSize(s.config.Agent.BufferSize),
	}
	if s.clock != nil {
		opts = append(opts, controller.WithClock(s.clock))
	}
	if s.metrics != nil {
		opts = append(opts, controller.WithObserver(s.metrics.SessionStarted()))
	}
	for _, f := range s.observers {
		if o := f(id); o != nil {
			opts = append(opts, controller.WithObserver(o))
		}
	}

	ctrl := controller.New(ch, injector, opts...)
	s.sessions.Add(id, remoteAddr, ctrl)
	log.Info("session started", "addr", remoteAddr)

	runErr := ctrl.Run()
	if err := ctrl.Close(); err != nil {
		log.Warn("failed to close injector", "err", err)
	}

	s.sessions.Remove(id, runErr)
	log.Info("session ended", "addr", remoteAddr)
}

// expandPath expands ~ to the home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
