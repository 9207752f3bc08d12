package network

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/bnema/screenctl/internal/logger"
)

// Server accepts control connections on a TCP or unix stream socket
type Server struct {
	network  string
	address  string
	listener net.Listener
	limiter  sessionLimiter
	handler  SessionHandler

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a stream server. network is "tcp" or "unix".
func NewServer(network, address string, maxSessions int, handler SessionHandler) *Server {
	return &Server{
		network: network,
		address: address,
		limiter: sessionLimiter{max: maxSessions},
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		stop:    make(chan struct{}),
	}
}

// Start begins listening for connections
func (s *Server) Start(ctx context.Context) error {
	if s.network == "unix" {
		// A stale socket from a previous run blocks the bind
		_ = os.Remove(s.address)
	}

	listener, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()

	// Handle context cancellation
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stop:
		}
	}()

	return nil
}

// Stop closes the listener and every open connection, then waits for the sessions
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
}

// Address returns the server's listening address
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Sessions returns the number of active sessions
func (s *Server) Sessions() int {
	return s.limiter.count()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
				logger.Warnf("accept failed: %v", err)
				continue
			}
		}
		s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	if !s.limiter.acquire() {
		logger.Warn("rejecting connection", "addr", addr, "err", ErrTooManySessions)
		_ = conn.Close()
		return
	}

	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		_ = conn.Close()
		s.limiter.release()
		return
	default:
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			_ = conn.Close()
			s.limiter.release()
		}()

		s.handler(conn, addr)
	}()
}
