package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(rows ...SessionRow) *ServerModel {
	return NewServerModel(ServerConfig{
		Transport: "tcp",
		Address:   "127.0.0.1:27183",
		Backend:   "uinput",
		Sessions:  func() []SessionRow { return rows },
	})
}

func TestServerModel(t *testing.T) {
	t.Run("renders initial view", func(t *testing.T) {
		model := newTestModel()
		model.width = 80
		model.height = 30

		view := model.View()
		assert.Contains(t, view, "screenctl")
		assert.Contains(t, view, "injector: uinput")
		assert.Contains(t, view, "Listening on 127.0.0.1:27183 (tcp)")
		assert.Contains(t, view, "No sessions")
		assert.Contains(t, view, strings.Repeat("─", 80))
	})

	t.Run("refresh loads sessions", func(t *testing.T) {
		model := newTestModel(SessionRow{ID: "7", RemoteAddr: "10.1.1.1:9000", Frames: 4, Events: 2})

		_, cmd := model.Update(refreshMsg(time.Now()))
		assert.NotNil(t, cmd, "refresh schedules the next tick")

		view := model.View()
		assert.Contains(t, view, "#7")
		assert.Contains(t, view, "4 frames, 2 events")
		assert.Contains(t, view, "1 session(s)")
	})

	t.Run("activity messages", func(t *testing.T) {
		model := newTestModel()
		model.Update(ActivityMsg{Level: "ERROR", Text: "Session 1 failed"})

		require.Len(t, model.messages, 1)
		assert.Equal(t, MessageError, model.messages[0].Type)
		assert.Contains(t, model.View(), "Session 1 failed")

		model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
		assert.Empty(t, model.messages)
	})

	t.Run("activity log is bounded", func(t *testing.T) {
		model := newTestModel()
		for i := 0; i < maxMessages+10; i++ {
			model.AddMessage(MessageInfo, fmt.Sprintf("entry %d", i))
		}
		require.Len(t, model.messages, maxMessages)
		assert.Equal(t, fmt.Sprintf("entry %d", maxMessages+9), model.messages[maxMessages-1].Content)
	})

	t.Run("window resize", func(t *testing.T) {
		model := newTestModel()
		model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Equal(t, 120, model.width)
		assert.Equal(t, 120, model.sessions.Width)
		assert.Equal(t, 120, model.statusBar.Width)
	})

	t.Run("quit", func(t *testing.T) {
		model := newTestModel()
		_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
		assert.Contains(t, model.View(), "Shutting down")
	})
}
