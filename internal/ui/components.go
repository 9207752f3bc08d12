package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar represents a reusable status bar component
type StatusBar struct {
	Width       int
	Title       string
	Status      string
	Connected   bool
	ShowSpinner bool
	spinner     spinner.Model
}

// NewStatusBar creates a new status bar
func NewStatusBar(title string) *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerDot,
		FPS:    time.Second / 10,
	}
	s.Style = SpinnerStyle

	return &StatusBar{
		Title:       title,
		ShowSpinner: true,
		spinner:     s,
	}
}

// Init implements tea.Model
func (s *StatusBar) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update implements tea.Model
func (s *StatusBar) Update(msg tea.Msg) (*StatusBar, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.WindowSizeMsg:
		s.Width = msg.Width
	}
	return s, nil
}

// View renders the status bar
func (s *StatusBar) View() string {
	title := TitleStyle.Render(s.Title)

	status := s.Status
	if s.ShowSpinner {
		status = s.spinner.View() + " " + s.Status
	}
	statusFormatted := FormatStatus(s.Connected, status)

	gap := s.Width - lipgloss.Width(title) - lipgloss.Width(statusFormatted) - 2
	if gap < 0 {
		gap = 0
	}

	line := title + strings.Repeat(" ", gap) + statusFormatted
	return BoxStyle.Width(s.Width).Render(line)
}

// SessionRow is one line of the session list
type SessionRow struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
	Frames     uint64
	Events     uint64
}

// SessionList shows the running control sessions
type SessionList struct {
	Title    string
	Sessions []SessionRow
	Width    int
}

// View renders the session list
func (c *SessionList) View() string {
	var b strings.Builder

	b.WriteString(SubheaderStyle.Render(c.Title))
	b.WriteString("\n\n")

	if len(c.Sessions) == 0 {
		b.WriteString(MutedStyle.Render("No sessions"))
	}
	for _, row := range c.Sessions {
		line := fmt.Sprintf("%s %s (%s)  %s",
			ConnectedIndicator,
			ListItemStyle.Render("#"+row.ID),
			SubtleStyle.Render(row.RemoteAddr),
			TextStyle.Render(fmt.Sprintf("%d frames, %d events", row.Frames, row.Events)))

		if !row.StartedAt.IsZero() {
			line += "  " + MutedStyle.Render("up "+time.Since(row.StartedAt).Truncate(time.Second).String())
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return BoxStyle.Width(c.Width).Render(b.String())
}

// ControlsHelp displays keyboard controls
type ControlsHelp struct {
	Controls []Control
	Width    int
}

// Control represents a keyboard control
type Control struct {
	Key  string
	Desc string
}

// View renders the controls help
func (c *ControlsHelp) View() string {
	var b strings.Builder

	b.WriteString(SubheaderStyle.Render("Controls:"))
	b.WriteString("\n\n")

	maxKeyLen := 0
	for _, ctrl := range c.Controls {
		if len(ctrl.Key) > maxKeyLen {
			maxKeyLen = len(ctrl.Key)
		}
	}

	for _, ctrl := range c.Controls {
		key := ControlKeyStyle.Width(maxKeyLen).Render(ctrl.Key)
		desc := ControlDescStyle.Render(ctrl.Desc)
		b.WriteString(fmt.Sprintf("  %s  %s\n", key, desc))
	}

	return BoxStyle.Width(c.Width).Render(b.String())
}

// Message displays a styled activity entry
type Message struct {
	Type    MessageType
	Content string
}

// MessageType represents the type of message
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// ParseMessageType maps a log level name to a message type
func ParseMessageType(level string) MessageType {
	switch strings.ToUpper(level) {
	case "SUCCESS":
		return MessageSuccess
	case "WARN", "WARNING":
		return MessageWarning
	case "ERROR":
		return MessageError
	default:
		return MessageInfo
	}
}

// View renders the message
func (m *Message) View() string {
	var style lipgloss.Style
	var prefix string

	switch m.Type {
	case MessageSuccess:
		style = SuccessStyle
		prefix = "✓ "
	case MessageWarning:
		style = WarningStyle
		prefix = "⚠ "
	case MessageError:
		style = ErrorStyle
		prefix = "✗ "
	default:
		style = InfoStyle
		prefix = "ℹ "
	}

	return style.Render(prefix + m.Content)
}
