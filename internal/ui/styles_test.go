package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		status    string
		indicator string
	}{
		{name: "connected", connected: true, status: "Listening", indicator: ConnectedIndicator},
		{name: "disconnected", connected: false, status: "Stopped", indicator: DisconnectedIndicator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.connected, tt.status)
			assert.True(t, strings.HasPrefix(got, tt.indicator))
			assert.Contains(t, got, tt.status)
		})
	}
}

func TestCreateSeparator(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		char      string
		wantWidth int
	}{
		{name: "explicit", width: 10, char: "=", wantWidth: 10},
		{name: "default width", width: 0, char: "-", wantWidth: 50},
		{name: "default char", width: 5, char: "", wantWidth: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSeparator(tt.width, tt.char)
			assert.Equal(t, tt.wantWidth, lipgloss.Width(got))
		})
	}
}
