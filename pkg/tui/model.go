// Package tui provides an interactive terminal controller for a player.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/vmemplay/pkg/ports"
)

// SeekStep is how far the arrow keys move the playback time.
const SeekStep = 5 * time.Second

const refreshInterval = 100 * time.Millisecond

// Controller is the player surface the UI drives. *player.Player
// implements it.
type Controller interface {
	Play(url string) error
	Stop() error
	Pause() error
	Seek(delta time.Duration) error
	State() ports.State
	Session() string
	Media() string
	Pending() int
	Time() (time.Duration, error)
	Length() (time.Duration, error)
}

// Options configures the model.
type Options struct {
	Media    string
	Capacity int
	Frames   func() int64 // Frames displayed so far, usually display.Loop.Frames
}

type tickMsg time.Time

// actionMsg reports the outcome of a control call run off the UI goroutine.
type actionMsg struct {
	action string
	err    error
}

// Model is the bubbletea model acting as the control thread.
type Model struct {
	ctrl Controller
	opts Options

	state    ports.State
	session  string
	pending  int
	frames   int64
	position time.Duration
	length   time.Duration
	status   string
	busy     bool
	quitting bool
}

// New creates the model.
func New(ctrl Controller, opts Options) Model {
	if opts.Frames == nil {
		opts.Frames = func() int64 { return 0 }
	}
	return Model{
		ctrl:   ctrl,
		opts:   opts,
		state:  ports.StateStopped,
		status: "space: play",
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// run performs a control call in a command so a Stop waiting on the
// decoder never freezes the UI.
func (m Model) run(action string, fn func() error) (Model, tea.Cmd) {
	m.busy = true
	m.status = action + "..."
	return m, func() tea.Msg {
		return actionMsg{action: action, err: fn()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.refresh()
		return m, tick()

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %s", msg.action, msg.err)
		} else {
			m.status = msg.action
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case " ":
		return m.run("play", func() error { return m.ctrl.Play(m.opts.Media) })
	case "p":
		return m.run("pause", m.ctrl.Pause)
	case "s":
		return m.run("stop", m.ctrl.Stop)
	case "left":
		return m.run("seek -5s", func() error { return m.ctrl.Seek(-SeekStep) })
	case "right":
		return m.run("seek +5s", func() error { return m.ctrl.Seek(SeekStep) })
	}
	return m, nil
}

func (m *Model) refresh() {
	m.state = m.ctrl.State()
	m.session = m.ctrl.Session()
	m.pending = m.ctrl.Pending()
	m.frames = m.opts.Frames()
	if t, err := m.ctrl.Time(); err == nil {
		m.position = t
	}
	if l, err := m.ctrl.Length(); err == nil {
		m.length = l
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("vmemplay"))
	b.WriteString("  ")
	b.WriteString(stateStyle(m.state).Render(m.state.String()))
	b.WriteString("\n\n")

	media := m.ctrl.Media()
	if media == "" {
		media = m.opts.Media
	}
	b.WriteString(row("media", media))
	session := m.session
	if session == "" {
		session = "-"
	}
	b.WriteString(row("session", session))
	b.WriteString(row("time", formatTime(m.position, m.length)))
	b.WriteString(row("queue", fillBar(m.pending, m.opts.Capacity)))
	b.WriteString(row("frames", fmt.Sprintf("%d", m.frames)))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play · p pause · s stop · ←/→ seek 5s · q quit"))
	b.WriteString("\n")
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func fillBar(pending, capacity int) string {
	if capacity <= 0 {
		return fmt.Sprintf("%d", pending)
	}
	if pending > capacity {
		pending = capacity
	}
	return barFullStyle.Render(strings.Repeat("█", pending)) +
		barEmptyStyle.Render(strings.Repeat("░", capacity-pending)) +
		fmt.Sprintf(" %d/%d", pending, capacity)
}

func formatTime(pos, length time.Duration) string {
	if length <= 0 {
		return pos.Truncate(100 * time.Millisecond).String()
	}
	return fmt.Sprintf("%s / %s", pos.Truncate(100*time.Millisecond), length.Truncate(100*time.Millisecond))
}

// Run shows the UI until the user quits or ctx is done.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	p := tea.NewProgram(New(ctrl, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
