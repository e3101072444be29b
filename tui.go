package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/fsm"
	"murmur/shell"
)

type StateMsg struct {
	State fsm.State
	Label string
}
type TranscriptMsg struct{ Text string }
type InfoMsg struct {
	Hotkey string
	Device string
}
type tickMsg time.Time

type tuiModel struct {
	state      fsm.State
	label      string
	hotkey     string
	device     string
	lastText   string
	count      int
	recStarted time.Time
	now        time.Time
	width      int
	toggle     func()
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stateStyles = map[fsm.State]lipgloss.Style{
		fsm.StateLoading:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		fsm.StateIdle:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		fsm.StateRecording:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		fsm.StateProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		fsm.StateStopped:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
)

func NewTUIProgram(toggle func()) *tea.Program {
	m := tuiModel{state: fsm.StateLoading, label: fsm.StateLoading.Label(), toggle: toggle}
	return tea.NewProgram(m)
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "space":
			if m.toggle != nil && fsm.Toggleable(m.state) {
				// Toggle takes locks and may block on the recorder.
				go m.toggle()
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case StateMsg:
		if msg.State == fsm.StateRecording && m.state != fsm.StateRecording {
			m.recStarted = time.Now()
		}
		m.state = msg.State
		m.label = msg.Label

	case TranscriptMsg:
		m.lastText = msg.Text
		m.count++

	case InfoMsg:
		m.hotkey = msg.Hotkey
		m.device = msg.Device
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("murmur"))
	b.WriteString("  ")
	b.WriteString(stateStyles[m.state].Render(string(m.state)))
	if m.state == fsm.StateRecording && !m.recStarted.IsZero() && m.now.After(m.recStarted) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %.1fs", m.now.Sub(m.recStarted).Seconds())))
	}
	b.WriteString("\n\n")

	hint := "space: " + m.label + "  q: quit"
	if m.hotkey != "" {
		hint += "  hotkey: " + m.hotkey
	}
	b.WriteString(dimStyle.Render(hint))
	b.WriteString("\n")
	if m.device != "" {
		b.WriteString(dimStyle.Render("mic: " + m.device))
		b.WriteString("\n")
	}

	if m.lastText != "" {
		width := m.width - 4
		if width < 20 {
			width = 76
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("last (%d copied):", m.count)))
		b.WriteString("\n")
		b.WriteString(textStyle.Width(width).Render(shell.Preview(m.lastText, 400)))
		b.WriteString("\n")
	}
	return b.String()
}

// tuiMenu forwards lifecycle updates to the terminal view.
type tuiMenu struct{}

func (tuiMenu) Update(state fsm.State, label string) {
	tuiSend(StateMsg{State: state, Label: label})
}
