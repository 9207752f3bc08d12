// Package setup provides the interactive configuration wizard
package setup

import (
	"fmt"
	"strconv"

	"github.com/bnema/screenctl/internal/config"
	"github.com/charmbracelet/huh"
)

// Answers holds the wizard fields as the form edits them
type Answers struct {
	Transport     string
	ListenAddress string
	Port          string
	SocketPath    string
	Backend       string
	Width         string
	Height        string
	Metrics       bool
}

// AnswersFrom prefills the wizard from c
func AnswersFrom(c *config.Config) Answers {
	return Answers{
		Transport:     c.Agent.Transport,
		ListenAddress: c.Agent.ListenAddress,
		Port:          strconv.Itoa(c.Agent.Port),
		SocketPath:    c.Agent.SocketPath,
		Backend:       c.Injector.Backend,
		Width:         strconv.Itoa(c.Injector.Width),
		Height:        strconv.Itoa(c.Injector.Height),
		Metrics:       c.Metrics.Enabled,
	}
}

// Apply writes the answers into c and validates the result
func (a Answers) Apply(c *config.Config) error {
	port, err := strconv.Atoi(a.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", a.Port, err)
	}
	width, err := strconv.Atoi(a.Width)
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", a.Width, err)
	}
	height, err := strconv.Atoi(a.Height)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", a.Height, err)
	}

	next := *c
	next.Agent.Transport = a.Transport
	next.Agent.ListenAddress = a.ListenAddress
	next.Agent.Port = port
	next.Agent.SocketPath = a.SocketPath
	next.Injector.Backend = a.Backend
	next.Injector.Width = width
	next.Injector.Height = height
	next.Metrics.Enabled = a.Metrics

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

// NewForm builds the wizard form bound to a
func NewForm(a *Answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Control transport").
				Description("How the host reaches the agent").
				Options(
					huh.NewOption("TCP", config.TransportTCP),
					huh.NewOption("Unix socket", config.TransportUnix),
					huh.NewOption("SSH", config.TransportSSH),
					huh.NewOption("WebSocket", config.TransportWebSocket),
				).
				Value(&a.Transport),
			huh.NewInput().
				Title("Listen address").
				Value(&a.ListenAddress),
			huh.NewInput().
				Title("Port").
				Validate(validateInt).
				Value(&a.Port),
			huh.NewInput().
				Title("Socket path").
				Description("Used by the unix transport").
				Value(&a.SocketPath),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Injector backend").
				Options(
					huh.NewOption("uinput touchpad", "uinput"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("Discard", "none"),
				).
				Value(&a.Backend),
			huh.NewInput().
				Title("Display width").
				Validate(validateInt).
				Value(&a.Width),
			huh.NewInput().
				Title("Display height").
				Validate(validateInt).
				Value(&a.Height),
			huh.NewConfirm().
				Title("Expose Prometheus metrics?").
				Value(&a.Metrics),
		),
	)
}

// Run prompts for the main settings and applies them to c
func Run(c *config.Config) error {
	answers := AnswersFrom(c)
	if err := NewForm(&answers).Run(); err != nil {
		return err
	}
	return answers.Apply(c)
}
