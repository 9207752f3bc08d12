package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxMessages = 50

// ActivityMsg adds an entry to the activity log
type ActivityMsg struct {
	Level string
	Text  string
}

// refreshMsg triggers a reload of the session list
type refreshMsg time.Time

// ServerConfig holds configuration for the agent status view
type ServerConfig struct {
	Transport string
	Address   string
	Backend   string
	// Sessions is polled every RefreshInterval
	Sessions        func() []SessionRow
	RefreshInterval time.Duration
}

// ServerModel is the Bubble Tea model for the agent status view
type ServerModel struct {
	cfg       ServerConfig
	statusBar *StatusBar
	sessions  *SessionList
	controls  *ControlsHelp
	messages  []Message
	width     int
	height    int
	quitting  bool
}

// NewServerModel creates a new status view model
func NewServerModel(cfg ServerConfig) *ServerModel {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 500 * time.Millisecond
	}

	statusBar := NewStatusBar("screenctl")
	statusBar.Status = fmt.Sprintf("Listening on %s (%s)", cfg.Address, cfg.Transport)
	statusBar.Connected = true

	return &ServerModel{
		cfg:       cfg,
		statusBar: statusBar,
		sessions: &SessionList{
			Title: "Control Sessions",
		},
		controls: &ControlsHelp{
			Controls: []Control{
				{Key: "q", Desc: "Stop agent"},
				{Key: "c", Desc: "Clear messages"},
			},
		},
	}
}

// Init implements tea.Model
func (m *ServerModel) Init() tea.Cmd {
	return tea.Batch(m.statusBar.Init(), m.tick())
}

func (m *ServerModel) tick() tea.Cmd {
	return tea.Tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update implements tea.Model
func (m *ServerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.messages = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sessions.Width = msg.Width
		m.controls.Width = msg.Width

	case refreshMsg:
		m.Refresh()
		return m, m.tick()

	case ActivityMsg:
		m.AddMessage(ParseMessageType(msg.Level), msg.Text)
	}

	statusBar, cmd := m.statusBar.Update(msg)
	m.statusBar = statusBar

	return m, cmd
}

// Refresh reloads the session list
func (m *ServerModel) Refresh() {
	if m.cfg.Sessions == nil {
		return
	}
	m.sessions.Sessions = m.cfg.Sessions()

	n := len(m.sessions.Sessions)
	m.statusBar.Status = fmt.Sprintf("Listening on %s (%s) - %d session(s)", m.cfg.Address, m.cfg.Transport, n)
}

// View implements tea.Model
func (m *ServerModel) View() string {
	if m.quitting {
		return MutedStyle.Render("Shutting down agent...\n")
	}

	var sections []string

	header := HeaderStyle.Render(fmt.Sprintf("screenctl agent - injector: %s", m.cfg.Backend))
	sections = append(sections, header)
	sections = append(sections, CreateSeparator(m.width, ""))
	sections = append(sections, m.statusBar.View())
	sections = append(sections, m.sessions.View())

	if len(m.messages) > 0 {
		var msgSection strings.Builder
		msgSection.WriteString(SubheaderStyle.Render("Recent Activity:"))
		msgSection.WriteString("\n\n")

		// Show last 5 messages
		start := 0
		if len(m.messages) > 5 {
			start = len(m.messages) - 5
		}
		for _, msg := range m.messages[start:] {
			msgSection.WriteString(msg.View())
			msgSection.WriteString("\n")
		}

		sections = append(sections, BoxStyle.Width(m.width).Render(msgSection.String()))
	}

	sections = append(sections, m.controls.View())

	return lipgloss.JoinVertical(lipgloss.Top, sections...)
}

// AddMessage adds a message to the activity log
func (m *ServerModel) AddMessage(msgType MessageType, content string) {
	m.messages = append(m.messages, Message{
		Type:    msgType,
		Content: content,
	})
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}
