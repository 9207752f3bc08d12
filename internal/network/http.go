package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/screenctl/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// HTTPServer serves the websocket control endpoint and the operational endpoints
type HTTPServer struct {
	address string
	router  chi.Router
	limiter sessionLimiter
	handler SessionHandler

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu    sync.Mutex
	conns map[*WSConn]struct{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// HTTPOption configures an HTTPServer
type HTTPOption func(*HTTPServer)

// WithMetricsHandler mounts h at /metrics
func WithMetricsHandler(h http.Handler) HTTPOption {
	return func(s *HTTPServer) {
		s.router.Handle("/metrics", h)
	}
}

// WithControlEndpoint mounts the websocket control channel at /control
func WithControlEndpoint(maxSessions int, handler SessionHandler) HTTPOption {
	return func(s *HTTPServer) {
		s.limiter = sessionLimiter{max: maxSessions}
		s.handler = handler
		s.router.Get("/control", s.serveControl)
	}
}

// NewHTTPServer creates an HTTP server with /healthz always mounted
func NewHTTPServer(address string, opts ...HTTPOption) *HTTPServer {
	s := &HTTPServer{
		address: address,
		router:  chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
		},
		conns: make(map[*WSConn]struct{}),
		stop:  make(chan struct{}),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router, mostly for tests
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP
func (s *HTTPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stop:
		}
	}()

	return nil
}

// Stop shuts the server down and closes any websocket sessions
func (s *HTTPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()

		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		s.wg.Wait()
	})
}

// Address returns the bound address once started
func (s *HTTPServer) Address() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

// Sessions returns the number of active websocket sessions
func (s *HTTPServer) Sessions() int {
	return s.limiter.count()
}

func (s *HTTPServer) serveControl(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.acquire() {
		logger.Warn("rejecting websocket session", "addr", r.RemoteAddr, "err", ErrTooManySessions)
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.release()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	ch := NewWSConn(conn)

	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		_ = ch.Close()
		return
	default:
	}
	s.conns[ch] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, ch)
		s.mu.Unlock()
		_ = ch.Close()
		s.wg.Done()
	}()

	s.handler(ch, r.RemoteAddr)
}
