package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/user/vmemplay/pkg/ports"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ade80"))

	labelStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	statusStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("111"))

	helpStyle = lipgloss.NewStyle().
			Faint(true)

	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var stateColors = map[ports.State]lipgloss.Color{
	ports.StatePlaying: lipgloss.Color("#4ade80"),
	ports.StatePaused:  lipgloss.Color("#facc15"),
	ports.StateEnded:   lipgloss.Color("#60a5fa"),
	ports.StateError:   lipgloss.Color("#f87171"),
}

func stateStyle(s ports.State) lipgloss.Style {
	c, ok := stateColors[s]
	if !ok {
		c = lipgloss.Color("245")
	}
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(c)
}
