package server

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bnema/screenctl/internal/controller"
)

// SessionInfo describes a running control session
type SessionInfo struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
	Stats      controller.Stats
}

// ActivityFunc receives session lifecycle notifications
type ActivityFunc func(level, message string)

// session is one registered controller
type session struct {
	id         string
	remoteAddr string
	startedAt  time.Time
	ctrl       *controller.Controller
}

// SessionManager tracks the controllers of the running sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	nextID   uint64

	onActivity ActivityFunc
}

// NewSessionManager creates an empty session registry
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
	}
}

// OnActivity sets the callback for session notifications
func (m *SessionManager) OnActivity(fn ActivityFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActivity = fn
}

// NextID allocates a session id
func (m *SessionManager) NextID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return strconv.FormatUint(m.nextID, 10)
}

// Add registers a running controller
func (m *SessionManager) Add(id, remoteAddr string, ctrl *controller.Controller) {
	m.mu.Lock()
	m.sessions[id] = &session{
		id:         id,
		remoteAddr: remoteAddr,
		startedAt:  time.Now(),
		ctrl:       ctrl,
	}
	notify := m.onActivity
	m.mu.Unlock()

	if notify != nil {
		notify("INFO", "Session "+id+" connected from "+remoteAddr)
	}
}

// Remove unregisters a session
func (m *SessionManager) Remove(id string, err error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	notify := m.onActivity
	m.mu.Unlock()

	if !ok || notify == nil {
		return
	}
	if err != nil {
		notify("ERROR", "Session "+id+" ("+sess.remoteAddr+") failed: "+err.Error())
		return
	}
	notify("INFO", "Session "+id+" ("+sess.remoteAddr+") ended")
}

// List returns the running sessions ordered by start time
func (m *SessionManager) List() []SessionInfo {
	m.mu.RLock()
	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, sess := range m.sessions {
		infos = append(infos, SessionInfo{
			ID:         sess.id,
			RemoteAddr: sess.remoteAddr,
			StartedAt:  sess.startedAt,
			Stats:      sess.ctrl.Stats(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Count returns the number of running sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ShutdownAll closes the channel of every session. The workers end on their own
// and their handlers release the injectors.
func (m *SessionManager) ShutdownAll() int {
	m.mu.RLock()
	ctrls := make([]*controller.Controller, 0, len(m.sessions))
	for _, sess := range m.sessions {
		ctrls = append(ctrls, sess.ctrl)
	}
	m.mu.RUnlock()

	for _, ctrl := range ctrls {
		ctrl.Shutdown()
	}
	return len(ctrls)
}
