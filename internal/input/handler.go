// Package input delivers synthesized motion events to the host input subsystem
package input

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/screenctl/internal/logger"
)

var (
	// ErrInjectorClosed is returned when injecting into a closed injector
	ErrInjectorClosed = errors.New("injector is closed")
	// ErrInvalidEvent is returned for events the backend cannot represent
	ErrInvalidEvent = errors.New("invalid event")
	// ErrUnknownBackend is returned by NewInjector for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown injector backend")
)

// Injector delivers motion events to the host
type Injector interface {
	Inject(event MotionEvent) error
	Close() error
}

// Backend names accepted by NewInjector
const (
	BackendUInput = "uinput"
	BackendLog    = "log"
	BackendNone   = "none"
)

// Options configure NewInjector
type Options struct {
	Backend    string
	DeviceName string
	Width      int32
	Height     int32
}

// NewInjector creates the injector for the configured backend
func NewInjector(opts Options) (Injector, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendUInput:
		inj, err := newUInputInjector(opts.DeviceName, opts.Width, opts.Height)
		if err != nil {
			return nil, fmt.Errorf("failed to create uinput injector: %w", err)
		}
		return inj, nil
	case BackendLog:
		return &logInjector{}, nil
	case BackendNone, "":
		return Discard, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Discard accepts and drops every event
var Discard Injector = discard{}

type discard struct{}

func (discard) Inject(MotionEvent) error { return nil }
func (discard) Close() error             { return nil }

// logInjector writes events to the debug log instead of injecting them
type logInjector struct{}

func (*logInjector) Inject(event MotionEvent) error {
	logger.Debugf("inject %s", event)
	return nil
}

func (*logInjector) Close() error { return nil }
