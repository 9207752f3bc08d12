package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramRunner manages the lifecycle of a Bubble Tea program
type ProgramRunner struct {
	program *tea.Program
	done    chan struct{}
}

// NewProgramRunner creates a runner for model
func NewProgramRunner(model tea.Model, opts ...tea.ProgramOption) *ProgramRunner {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &ProgramRunner{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}
}

// Run blocks until the user quits or ctx is cancelled
func (r *ProgramRunner) Run(ctx context.Context) error {
	defer close(r.done)

	errCh := make(chan error, 1)
	go func() {
		_, err := r.program.Run()
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		r.program.Quit()

		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			// Force kill the program if it's not responding
			r.program.Kill()
			<-errCh
			return nil
		}
	}
}

// Send sends a message to the running program
func (r *ProgramRunner) Send(msg tea.Msg) {
	r.program.Send(msg)
}

// Done returns a channel that's closed when the program exits
func (r *ProgramRunner) Done() <-chan struct{} {
	return r.done
}
