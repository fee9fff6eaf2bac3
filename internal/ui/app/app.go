// Package app is the root Bubble Tea model for the clinicalq console.
// It owns the tab layout (monitor / report), the engine log overlay, and
// routes controller notifications into the sub-views.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clinicalq/console/internal/controller"
	"github.com/clinicalq/console/internal/protocol"
	"github.com/clinicalq/console/internal/ui/theme"
	"github.com/clinicalq/console/internal/ui/views/logview"
	"github.com/clinicalq/console/internal/ui/views/monitor"
	"github.com/clinicalq/console/internal/ui/views/report"
	"github.com/clinicalq/console/internal/ui/views/status"
)

const healthInterval = 2 * time.Second

// Tab identifies which main view is active.
type Tab int

const (
	TabMonitor Tab = iota
	TabReport
)

// Model is the root Bubble Tea model.
type Model struct {
	ctrl *controller.Controller

	keys   KeyMap
	width  int
	height int

	tab        Tab
	logOverlay bool

	statusBar status.Model
	monitor   monitor.Model
	report    report.Model
	logs      logview.Model

	gate  string
	toast string
}

// New creates the root model.
func New(ctrl *controller.Controller) Model {
	return Model{
		ctrl:      ctrl,
		keys:      DefaultKeyMap(),
		statusBar: status.New(),
		monitor:   monitor.New(protocol.ChartedBands()),
		report:    report.New(),
		logs:      logview.New(),
	}
}

// Init arms the engine health poll.
func (m Model) Init() tea.Cmd {
	return healthTick()
}

func healthTick() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.monitor.Width = msg.Width
		m.report.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PhaseMsg:
		m.statusBar.Phase = msg.Phase.String()
		m.statusBar.SessionID = m.ctrl.SessionID()
		m.monitor.SetPhase(msg.Phase.String())
		if msg.Phase.Terminal() {
			m.gate = ""
			m.statusBar.Gate = ""
			m.monitor.SetGate("")
		}
		return m, nil

	case EpochMsg:
		e := msg.Epoch
		nextLabel := ""
		if e.Next != nil {
			nextLabel = e.Next.Label
		}
		m.monitor.SetEpoch(monitor.Epoch{
			Sequence:    e.Sequence,
			Index:       e.Index,
			Total:       e.Total,
			Label:       e.Label,
			Instruction: e.Instruction,
			Seconds:     e.Seconds,
			Remaining:   e.Seconds,
			NextLabel:   nextLabel,
		})
		return m, nil

	case TickMsg:
		m.monitor.SetRemaining(msg.Tick.SecondsRemaining)
		return m, nil

	case BandpowerMsg:
		// Features are keyed by electrode location; the event's sequence
		// name is not a location in simultaneous mode.
		for loc := range msg.Sample.Features {
			for _, band := range protocol.ChartedBands() {
				m.monitor.SetSeries(loc, band, m.ctrl.Series(loc, band))
			}
		}
		return m, nil

	case GateMsg:
		if msg.Open {
			m.gate = msg.Location
		} else {
			m.gate = ""
		}
		m.statusBar.Gate = m.gate
		m.monitor.SetGate(m.gate)
		return m, nil

	case LogMsg:
		m.logs.Add(streamTag(string(msg.Stream)), msg.Message)
		m.monitor.SetLastLog(m.logs.Last())
		return m, nil

	case ResultMsg:
		m.report.SetReport(msg.Report.Source, msg.Report.Records, msg.Report.Summary)
		m.tab = TabReport
		return m, nil

	case FailureMsg:
		m.monitor.SetFailure(msg.Message)
		m.logs.Add("err", msg.Message)
		return m, nil

	case startFailedMsg:
		m.toast = msg.err.Error()
		return m, nil

	case healthTickMsg:
		h := m.ctrl.Health()
		m.statusBar.EngineUp = h.Running
		m.statusBar.CPUPercent = h.CPUPercent
		m.statusBar.RSSBytes = h.RSSBytes
		return m, healthTick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.logOverlay {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs):
			m.logOverlay = false
		case key.Matches(msg, m.keys.Up):
			m.logs.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.logs.ScrollDown(1)
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.StopSession()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		m.toast = ""
		ctrl := m.ctrl
		return m, func() tea.Msg {
			if err := ctrl.Start(context.Background()); err != nil {
				return startFailedMsg{err: err}
			}
			return nil
		}

	case key.Matches(msg, m.keys.Stop):
		res := m.ctrl.StopSession()
		if !res.OK {
			m.toast = res.Message
		}
		return m, nil

	case key.Matches(msg, m.keys.Ready):
		if m.gate != "" {
			res := m.ctrl.Ready(m.gate)
			m.logs.Add("out", res.Message)
			if !res.OK {
				m.toast = res.Message
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		if m.report.Loaded() {
			m.report.CycleFilter()
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.tab == TabMonitor {
			m.tab = TabReport
		} else {
			m.tab = TabMonitor
		}
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.logOverlay = true
		return m, nil
	}

	return m, nil
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.logOverlay {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.statusBar.View(),
			m.logs.View(m.width, m.height-4),
		)
	}

	var body string
	if m.tab == TabMonitor {
		body = m.monitor.View()
	} else {
		body = m.report.View()
	}

	sections := []string{
		m.statusBar.View(),
		body,
	}
	if m.toast != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorWarning).Render("  "+m.toast))
	}
	sections = append(sections, theme.StyleDimmed.Render(
		"  s:start  x:stop  r:ready  tab:monitor/report  f:filter  l:log  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func streamTag(stream string) string {
	if stream == "stderr" {
		return "err"
	}
	return "out"
}
