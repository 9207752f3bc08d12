package network

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrTooManySessions is reported when a connection exceeds the session limit
var ErrTooManySessions = errors.New("maximum number of sessions reached")

// SessionHandler serves one control channel and returns when the session is over.
// The transport closes the channel after the handler returns.
type SessionHandler func(ch io.ReadCloser, remoteAddr string)

// Listener accepts control channels on one transport
type Listener interface {
	Start(ctx context.Context) error
	Stop()
	Address() string
}

// sessionLimiter caps the number of concurrent sessions; zero means no limit
type sessionLimiter struct {
	mu     sync.Mutex
	max    int
	active int
}

func (l *sessionLimiter) acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.max > 0 && l.active >= l.max {
		return false
	}
	l.active++
	return true
}

func (l *sessionLimiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
}

func (l *sessionLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
