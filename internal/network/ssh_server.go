package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bnema/screenctl/internal/logger"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

// KeyAuthorizer decides whether a public key fingerprint may open a session
type KeyAuthorizer func(addr, fingerprint string) bool

// SSHServer carries control channels over SSH sessions.
// The session's stdin is the control stream.
type SSHServer struct {
	address     string
	hostKeyPath string
	authorize   KeyAuthorizer
	limiter     sessionLimiter
	handler     SessionHandler
	sshServer   *ssh.Server

	mu       sync.Mutex
	sessions map[string]ssh.Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSSHServer creates an SSH transport. A nil authorize accepts every key.
func NewSSHServer(address, hostKeyPath string, maxSessions int, authorize KeyAuthorizer, handler SessionHandler) *SSHServer {
	return &SSHServer{
		address:     address,
		hostKeyPath: hostKeyPath,
		authorize:   authorize,
		limiter:     sessionLimiter{max: maxSessions},
		handler:     handler,
		sessions:    make(map[string]ssh.Session),
		stop:        make(chan struct{}),
	}
}

// Start begins listening for SSH connections
func (s *SSHServer) Start(ctx context.Context) error {
	server, err := wish.NewServer(
		wish.WithAddress(s.address),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			s.sessionHandler(),
			s.loggingMiddleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}
	s.sshServer = server

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		logger.Infof("SSH server listening on %s", s.address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Errorf("SSH server error: %v", err)
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

// Stop shuts down the SSH server and closes active sessions
func (s *SSHServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		for _, sess := range s.sessions {
			_ = sess.Close()
		}
		s.mu.Unlock()

		if s.sshServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.sshServer.Shutdown(ctx)
		}

		s.wg.Wait()
	})
}

// Address returns the configured listen address
func (s *SSHServer) Address() string {
	return s.address
}

// publicKeyAuth handles SSH public key authentication
func (s *SSHServer) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	fingerprint := gossh.FingerprintSHA256(key)
	addr := ctx.RemoteAddr().String()

	logger.Infof("SSH authentication attempt addr=%s user=%s key=%s", addr, ctx.User(), fingerprint)

	if s.authorize == nil {
		return true
	}
	if s.authorize(addr, fingerprint) {
		return true
	}
	logger.Infof("SSH key denied key=%s addr=%s", fingerprint, addr)
	return false
}

// loggingMiddleware provides custom logging using our internal logger
func (s *SSHServer) loggingMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			logger.Debugf("SSH session started: user=%s addr=%s", sess.User(), sess.RemoteAddr())
			h(sess)
			logger.Debugf("SSH session ended: addr=%s", sess.RemoteAddr())
		}
	}
}

// sessionHandler turns each SSH session into a control channel
func (s *SSHServer) sessionHandler() wish.Middleware {
	return func(_ ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			addr := sess.RemoteAddr().String()
			if !s.limiter.acquire() {
				logger.Infof("Rejecting client - max sessions reached addr=%s", addr)
				fmt.Fprintf(sess.Stderr(), "%v\n", ErrTooManySessions)
				_ = sess.Exit(1)
				return
			}
			defer s.limiter.release()

			id := sess.Context().SessionID()
			s.mu.Lock()
			select {
			case <-s.stop:
				s.mu.Unlock()
				_ = sess.Exit(1)
				return
			default:
			}
			s.sessions[id] = sess
			s.mu.Unlock()

			defer func() {
				s.mu.Lock()
				delete(s.sessions, id)
				s.mu.Unlock()
			}()

			s.handler(&sessionChannel{sess: sess}, addr)
			_ = sess.Exit(0)
		}
	}
}

// sessionChannel exposes an SSH session as a byte channel
type sessionChannel struct {
	sess ssh.Session
	once sync.Once
	err  error
}

func (c *sessionChannel) Read(p []byte) (int, error) {
	return c.sess.Read(p)
}

func (c *sessionChannel) Close() error {
	c.once.Do(func() {
		c.err = c.sess.Close()
		if errors.Is(c.err, io.EOF) {
			c.err = nil
		}
	})
	return c.err
}
