package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/clinicalq/console/internal/controller"
	"github.com/clinicalq/console/internal/event"
	"github.com/clinicalq/console/internal/session"
)

// Messages delivered into the Bubble Tea loop from the controller's
// notification sink.
type (
	PhaseMsg     struct{ Phase session.Phase }
	EpochMsg     struct{ Epoch session.EpochContext }
	TickMsg      struct{ Tick event.EpochTick }
	BandpowerMsg struct{ Sample event.Bandpower }
	GateMsg      struct {
		Location string
		Open     bool
	}
	LogMsg struct {
		Stream  event.Stream
		Message string
	}
	ResultMsg  struct{ Report controller.Report }
	FailureMsg struct{ Message string }

	startFailedMsg struct{ err error }
	healthTickMsg  struct{}
)

// BindSink builds a controller sink that forwards every notification
// into the program's message loop. Program.Send is safe from any
// goroutine, which is what makes the non-blocking sink contract hold.
func BindSink(p *tea.Program) controller.Sink {
	return controller.Sink{
		Phase:     func(ph session.Phase) { p.Send(PhaseMsg{Phase: ph}) },
		Epoch:     func(e session.EpochContext) { p.Send(EpochMsg{Epoch: e}) },
		Tick:      func(t event.EpochTick) { p.Send(TickMsg{Tick: t}) },
		Bandpower: func(b event.Bandpower) { p.Send(BandpowerMsg{Sample: b}) },
		Gate: func(location string, open bool) {
			p.Send(GateMsg{Location: location, Open: open})
		},
		Log: func(stream event.Stream, message string) {
			p.Send(LogMsg{Stream: stream, Message: message})
		},
		Result:  func(r controller.Report) { p.Send(ResultMsg{Report: r}) },
		Failure: func(msg string) { p.Send(FailureMsg{Message: msg}) },
	}
}
