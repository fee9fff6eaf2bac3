package main

import (
	"context"
	"fmt"
	"math"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clinicalq/console/internal/controller"
	"github.com/clinicalq/console/internal/event"
	"github.com/clinicalq/console/internal/relay"
	"github.com/clinicalq/console/internal/session"
	"github.com/clinicalq/console/internal/ui/app"
)

func newRunCmd(configPath *string) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a recording session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer log.Sync()

			ctrl := controller.New(log, cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var observerSink controller.Sink
			if cfg.Relay.Enabled {
				broadcaster := relay.NewBroadcaster(log.Named("relay"), func() relay.SnapshotPayload {
					return snapshotOf(ctrl)
				})
				server := relay.NewServer(log.Named("relay"), cfg.Relay.Addr, broadcaster)
				go func() {
					if err := server.Start(ctx); err != nil {
						log.Warn("relay stopped", zap.Error(err))
					}
				}()
				observerSink = relaySink(ctrl, broadcaster)
			}

			if headless {
				return runHeadless(ctx, ctrl, observerSink)
			}
			return runTUI(ctrl, observerSink)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false,
		"run without the TUI; session progress goes to stdout")
	return cmd
}

func runTUI(ctrl *controller.Controller, observer controller.Sink) error {
	p := tea.NewProgram(app.New(ctrl), tea.WithAltScreen())
	ctrl.SetSink(mergeSinks(app.BindSink(p), observer))
	_, err := p.Run()
	return err
}

// runHeadless drives one full session without a terminal UI: progress
// lines go to stdout, manual reposition gates are acknowledged
// immediately, and the process exits when the session ends.
func runHeadless(ctx context.Context, ctrl *controller.Controller, observer controller.Sink) error {
	done := make(chan error, 1)

	local := controller.Sink{
		Phase: func(p session.Phase) {
			fmt.Printf("phase: %s\n", p)
		},
		Epoch: func(e session.EpochContext) {
			fmt.Printf("epoch %d %s (%ds) at %s\n", e.Index, e.Label, e.Seconds, e.Sequence)
		},
		Gate: func(location string, open bool) {
			if !open {
				return
			}
			// No operator to press a key; acknowledge placement at once.
			res := ctrl.Ready(location)
			fmt.Printf("reposition %s: %s\n", location, res.Message)
		},
		Cue: func(label string, lookahead bool) {
			if lookahead {
				fmt.Printf("next up: %s\n", label)
			}
		},
		Log: func(stream event.Stream, message string) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", stream, message)
		},
		Result: func(r controller.Report) {
			printReport(r)
			done <- nil
		},
		Failure: func(msg string) {
			done <- fmt.Errorf("session failed: %s", msg)
		},
	}
	ctrl.SetSink(mergeSinks(local, observer))

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		ctrl.StopSession()
		return ctx.Err()
	}
}

func printReport(r controller.Report) {
	fmt.Printf("results (%s): %d in range, %d out of range, %d missing\n",
		r.Source, r.Summary.InRange, r.Summary.OutOfRange, r.Summary.Missing)
	for _, rec := range r.Records {
		value := "—"
		if !math.IsNaN(rec.Value) && !math.IsInf(rec.Value, 0) {
			value = fmt.Sprintf("%.2f", rec.Value)
		}
		fmt.Printf("  %-4s %-32s %10s  %-16s %s\n",
			rec.Location, rec.Name, value, rec.NormalRange, rec.Status)
	}
	for _, q := range r.Summary.Probes {
		fmt.Printf("  ? %s\n", q)
	}
}

// snapshotOf captures the controller state for a newly connected observer.
func snapshotOf(ctrl *controller.Controller) relay.SnapshotPayload {
	snap := relay.SnapshotPayload{
		SessionID: ctrl.SessionID(),
		Phase:     ctrl.Phase().String(),
		Gate:      ctrl.Gate(),
	}
	if e := ctrl.Epoch(); e != nil {
		snap.Location = e.Sequence
		snap.Label = e.Label
	}
	return snap
}

// relaySink mirrors session notifications onto the observer feed.
func relaySink(ctrl *controller.Controller, b *relay.Broadcaster) controller.Sink {
	return controller.Sink{
		Phase: func(p session.Phase) {
			b.Publish(relay.Message{Type: relay.MsgPhase, Payload: relay.PhasePayload{Phase: p.String()}})
		},
		Epoch: func(e session.EpochContext) {
			b.Publish(relay.Message{Type: relay.MsgEpoch, Payload: relay.EpochPayload{
				Sequence:    e.Sequence,
				Index:       e.Index,
				Label:       e.Label,
				Instruction: e.Instruction,
				Seconds:     e.Seconds,
			}})
		},
		Tick: func(t event.EpochTick) {
			b.Publish(relay.Message{Type: relay.MsgTick, Payload: relay.TickPayload{
				Sequence:         t.Sequence,
				Index:            t.Index,
				Label:            t.Label,
				SecondsRemaining: t.SecondsRemaining,
			}})
		},
		Bandpower: func(ev event.Bandpower) {
			b.Publish(relay.Message{Type: relay.MsgBandpower, Payload: relay.BandpowerPayload{
				Features: finiteFeatures(ev.Features),
			}})
		},
		Gate: func(location string, open bool) {
			b.Publish(relay.Message{Type: relay.MsgGate, Payload: relay.GatePayload{
				Location: location, Open: open,
			}})
		},
		Cue: func(label string, lookahead bool) {
			b.Publish(relay.Message{Type: relay.MsgCue, Payload: relay.CuePayload{
				Label: label, Lookahead: lookahead,
			}})
		},
		Log: func(stream event.Stream, message string) {
			b.Publish(relay.Message{Type: relay.MsgLog, Payload: relay.LogPayload{
				Stream: string(stream), Message: message,
			}})
		},
		Result: func(r controller.Report) {
			b.Publish(relay.Message{Type: relay.MsgResult, Payload: relay.ResultPayload{
				SessionID:  r.SessionID,
				InRange:    r.Summary.InRange,
				OutOfRange: r.Summary.OutOfRange,
				Missing:    r.Summary.Missing,
				Probes:     r.Summary.Probes,
			}})
		},
		Failure: func(msg string) {
			b.Publish(relay.Message{Type: relay.MsgFailure, Payload: relay.FailurePayload{Message: msg}})
		},
	}
}

// finiteFeatures copies the sample map, dropping non-finite values which
// JSON cannot carry.
func finiteFeatures(in map[string]map[string]event.Sample) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(in))
	for loc, bands := range in {
		cp := make(map[string]float64, len(bands))
		for band, v := range bands {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			cp[band] = f
		}
		if len(cp) > 0 {
			out[loc] = cp
		}
	}
	return out
}

// mergeSinks fans every notification out to both sinks.
func mergeSinks(a, b controller.Sink) controller.Sink {
	return controller.Sink{
		Phase: func(p session.Phase) {
			if a.Phase != nil {
				a.Phase(p)
			}
			if b.Phase != nil {
				b.Phase(p)
			}
		},
		Epoch: func(e session.EpochContext) {
			if a.Epoch != nil {
				a.Epoch(e)
			}
			if b.Epoch != nil {
				b.Epoch(e)
			}
		},
		Tick: func(t event.EpochTick) {
			if a.Tick != nil {
				a.Tick(t)
			}
			if b.Tick != nil {
				b.Tick(t)
			}
		},
		Bandpower: func(ev event.Bandpower) {
			if a.Bandpower != nil {
				a.Bandpower(ev)
			}
			if b.Bandpower != nil {
				b.Bandpower(ev)
			}
		},
		Gate: func(location string, open bool) {
			if a.Gate != nil {
				a.Gate(location, open)
			}
			if b.Gate != nil {
				b.Gate(location, open)
			}
		},
		Cue: func(label string, lookahead bool) {
			if a.Cue != nil {
				a.Cue(label, lookahead)
			}
			if b.Cue != nil {
				b.Cue(label, lookahead)
			}
		},
		Log: func(stream event.Stream, message string) {
			if a.Log != nil {
				a.Log(stream, message)
			}
			if b.Log != nil {
				b.Log(stream, message)
			}
		},
		Result: func(r controller.Report) {
			if a.Result != nil {
				a.Result(r)
			}
			if b.Result != nil {
				b.Result(r)
			}
		},
		Failure: func(msg string) {
			if a.Failure != nil {
				a.Failure(msg)
			}
			if b.Failure != nil {
				b.Failure(msg)
			}
		},
	}
}
