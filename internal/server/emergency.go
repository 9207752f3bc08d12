package server

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bnema/screenctl/internal/logger"
)

// DefaultReleaseFile is polled by EmergencyRelease; creating it ends every session
const DefaultReleaseFile = "/tmp/screenctl-release"

// EmergencyRelease ends every session on SIGUSR1 or when the release file appears.
// Ending a session closes its injector, which lifts any pressed pointer.
type EmergencyRelease struct {
	manager      *SessionManager
	releaseFile  string
	pollInterval time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewEmergencyRelease creates a new emergency release handler
func NewEmergencyRelease(manager *SessionManager, releaseFile string) *EmergencyRelease {
	if releaseFile == "" {
		releaseFile = DefaultReleaseFile
	}
	return &EmergencyRelease{
		manager:      manager,
		releaseFile:  releaseFile,
		pollInterval: time.Second,
		stopChan:     make(chan struct{}),
	}
}

// Start begins monitoring for emergency release conditions
func (er *EmergencyRelease) Start() {
	er.wg.Add(2)
	go er.handleSignals()
	go er.monitorFileTrigger()

	logger.Debug("emergency release armed", "file", er.releaseFile)
}

// Stop stops all emergency monitoring
func (er *EmergencyRelease) Stop() {
	er.stopOnce.Do(func() {
		close(er.stopChan)
	})
	er.wg.Wait()
}

// handleSignals listens for SIGUSR1 to trigger emergency release
func (er *EmergencyRelease) handleSignals() {
	defer er.wg.Done()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			er.triggerRelease("signal")
		case <-er.stopChan:
			return
		}
	}
}

// monitorFileTrigger checks for presence of the release file
func (er *EmergencyRelease) monitorFileTrigger() {
	defer er.wg.Done()

	ticker := time.NewTicker(er.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(er.releaseFile); err == nil {
				_ = os.Remove(er.releaseFile)
				er.triggerRelease("file")
			}
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) triggerRelease(reason string) {
	n := er.manager.ShutdownAll()
	logger.Warn("emergency release", "reason", reason, "sessions", n)
}
