// Package tui renders a trial session in the terminal and lets the viewer
// step it forward, run it unattended, or undo the last action.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtsim/models"
	"courtsim/trial"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type theme struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	footer   lipgloss.Style
	phase    lipgloss.Style
	status   lipgloss.Style
	errText  lipgloss.Style
	muted    lipgloss.Style
	fallback lipgloss.Style
	speakers map[models.Role]lipgloss.Style
}

func newTheme() theme {
	gold := lipgloss.Color("#ffd166")
	blue := lipgloss.Color("#01cdfe")
	pink := lipgloss.Color("#ff71ce")
	mint := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		footer:   lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		phase:    lipgloss.NewStyle().Foreground(gold).Bold(true),
		status:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		errText:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(muted),
		fallback: lipgloss.NewStyle().Foreground(pink).Italic(true),
		speakers: map[models.Role]lipgloss.Style{
			models.RoleJudge:            lipgloss.NewStyle().Foreground(gold).Bold(true),
			models.RolePlaintiffCounsel: lipgloss.NewStyle().Foreground(blue).Bold(true),
			models.RoleDefendantCounsel: lipgloss.NewStyle().Foreground(pink).Bold(true),
			models.RoleWitness:          lipgloss.NewStyle().Foreground(mint).Bold(true),
			models.RoleSystem:           lipgloss.NewStyle().Foreground(muted).Bold(true),
		},
	}
}

type stepDoneMsg struct {
	entry *models.TranscriptEntry
	err   error
}

type autoTickMsg struct{}

// Model is the bubbletea model of one trial session
type Model struct {
	ctx  context.Context
	auto *trial.Autoplay

	state     trial.State
	inflight  bool
	autoRun   bool
	done      bool
	lastErr   error
	statusMsg string

	width    int
	height   int
	timeline viewport.Model
	spinner  spinner.Model
	theme    theme
}

// New builds a model over an autoplay driver. ctx bounds every generation call.
func New(ctx context.Context, auto *trial.Autoplay) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true

	m := Model{
		ctx:       ctx,
		auto:      auto,
		state:     auto.Session.GetState(),
		statusMsg: "ready",
		timeline:  timeline,
		spinner:   sp,
		theme:     newTheme(),
	}
	m.renderTimeline()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) stepCmd() tea.Cmd {
	ctx, auto := m.ctx, m.auto
	return func() tea.Msg {
		entry, err := auto.Step(ctx)
		return stepDoneMsg{entry: entry, err: err}
	}
}

func (m Model) autoTick() tea.Cmd {
	delay := m.auto.Delay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return autoTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.timeline.Width = msg.Width - 4
		m.timeline.Height = max(msg.Height-9, 3)
		m.renderTimeline()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "n", "enter", " ":
			if !m.inflight && !m.done {
				m.inflight = true
				m.statusMsg = "waiting for " + pendingLabel(m.state)
				cmds = append(cmds, m.stepCmd())
			}
		case "a":
			m.autoRun = !m.autoRun
			if m.autoRun && !m.inflight && !m.done {
				m.inflight = true
				cmds = append(cmds, m.stepCmd())
			}
		case "u":
			if m.inflight {
				break
			}
			if err := m.auto.Session.Undo(); err != nil {
				m.lastErr = err
			} else {
				m.lastErr = nil
				m.done = false
				m.statusMsg = "undone"
			}
			m.refresh()
		default:
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			cmds = append(cmds, cmd)
		}
	case stepDoneMsg:
		m.inflight = false
		switch {
		case errors.Is(msg.err, trial.ErrTrialCompleted):
			m.done, m.autoRun = true, false
			m.statusMsg = "trial completed"
		case msg.err != nil:
			m.lastErr, m.autoRun = msg.err, false
			m.statusMsg = "turn failed"
		default:
			m.lastErr = nil
			if msg.entry != nil {
				m.statusMsg = msg.entry.Label + " spoke"
			} else {
				m.statusMsg = "phase advanced"
			}
		}
		m.refresh()
		if m.state.Phase == models.PhaseCompleted {
			m.done, m.autoRun = true, false
			m.statusMsg = "trial completed"
		}
		if m.autoRun {
			cmds = append(cmds, m.autoTick())
		}
	case autoTickMsg:
		if m.autoRun && !m.inflight && !m.done {
			m.inflight = true
			cmds = append(cmds, m.stepCmd())
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	m.state = m.auto.Session.GetState()
	m.renderTimeline()
}

func (m *Model) renderTimeline() {
	var sb strings.Builder
	var phase models.Phase
	for _, e := range m.state.Transcript {
		if e.Phase != phase {
			phase = e.Phase
			sb.WriteString(m.theme.phase.Render("── "+phase.Title()+" ──") + "\n")
		}
		label := e.Label
		if e.Witness != "" {
			label = fmt.Sprintf("%s (%s)", label, e.Witness)
		}
		style, ok := m.theme.speakers[e.Speaker]
		if !ok {
			style = m.theme.muted
		}
		content := e.Content
		if e.Fallback {
			content = m.theme.fallback.Render(content)
		}
		sb.WriteString(style.Render(label+":") + " " + content + "\n")
	}
	if len(m.state.Transcript) == 0 {
		sb.WriteString(m.theme.muted.Render("Nothing has been said yet. Press n to begin."))
	}
	m.timeline.SetContent(lipgloss.NewStyle().Width(max(m.timeline.Width, 20)).Render(sb.String()))
	m.timeline.GotoBottom()
}

func pendingLabel(st trial.State) string {
	if st.PendingStep == nil {
		return "the next phase"
	}
	return st.PendingRole.Label()
}

func (m Model) View() string {
	st := m.state
	header := m.theme.header.Render(fmt.Sprintf("%s  %s  %s",
		m.theme.phase.Render(st.Phase.Title()),
		m.theme.muted.Render(fmt.Sprintf("turn %d/%d", st.Cursor, len(st.Steps))),
		m.theme.muted.Render(st.CaseID)))

	status := m.theme.status.Render(m.statusMsg)
	if m.inflight {
		status = m.spinner.View() + " " + status
	}
	if m.lastErr != nil {
		status += "  " + m.theme.errText.Render(m.lastErr.Error())
	}
	if m.autoRun {
		status += "  " + m.theme.muted.Render("[auto]")
	}

	footer := m.theme.footer.Render("n next · a auto · u undo · ↑/↓ scroll · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.theme.panel.Render(m.timeline.View()),
		status,
		footer,
	)
}

// Run starts the program on the terminal and blocks until the viewer quits
func Run(ctx context.Context, auto *trial.Autoplay) error {
	p := tea.NewProgram(New(ctx, auto), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
