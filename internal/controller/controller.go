// Package controller orchestrates one recording session: it drives the
// engine process, folds its event stream through the session runtime,
// plays cue effects, and hands the finished result document to the
// metrics normalizer.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicalq/console/internal/config"
	"github.com/clinicalq/console/internal/cue"
	"github.com/clinicalq/console/internal/engine"
	"github.com/clinicalq/console/internal/event"
	"github.com/clinicalq/console/internal/metrics"
	"github.com/clinicalq/console/internal/protocol"
	"github.com/clinicalq/console/internal/session"
)

// ErrSessionActive is returned by Start while a session is in flight.
var ErrSessionActive = errors.New("a session is already active")

// Report is a normalized result set with its provenance attached.
type Report struct {
	SessionID string
	Source    string
	Records   []metrics.Record
	Summary   metrics.Summary
}

// CommandResult is the outcome of an operator command such as Ready.
type CommandResult struct {
	OK      bool
	Message string
}

// Sink receives session notifications. Every field is optional; nil
// callbacks are skipped. Callbacks fire from the controller's dispatch
// path and must not block.
type Sink struct {
	Phase     func(session.Phase)
	Epoch     func(session.EpochContext)
	Tick      func(event.EpochTick)
	Bandpower func(event.Bandpower)
	Gate      func(location string, open bool)
	Cue       func(label string, lookahead bool)
	Log       func(stream event.Stream, message string)
	Result    func(Report)
	Failure   func(message string)
}

// Controller owns at most one live session at a time.
type Controller struct {
	log    *zap.Logger
	cfg    config.Config
	runner *engine.Runner
	cues   *cue.Scheduler

	mu        sync.Mutex
	runtime   *session.Runtime
	sessionID string
	active    bool
	cancel    context.CancelFunc
	sink      Sink
}

// New wires a controller from config. The logger may be zap.NewNop().
func New(log *zap.Logger, cfg config.Config) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	var beeper cue.Beeper
	if cfg.Cues.Enabled {
		beeper = cue.NewTerminalBeeper(os.Stdout)
	}
	return &Controller{
		log:    log,
		cfg:    cfg,
		runner: engine.New(log.Named("engine"), cfg.Engine),
		cues: cue.NewScheduler(beeper,
			time.Duration(cfg.Cues.BeepIntervalMS)*time.Millisecond,
			cfg.Cues.Enabled),
	}
}

// SetSink installs the notification sink. Call before Start.
func (c *Controller) SetSink(s Sink) {
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// Start launches a new session. It fails fast with ErrSessionActive when
// one is already running; it never queues.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.active = true
	c.sessionID = uuid.NewString()
	c.runtime = session.NewRuntime(
		c.cfg.Session.Locations,
		protocol.ChartedBands(),
		c.cfg.Session.CueLeadSeconds,
	)
	sessionID := c.sessionID
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.log.Info("session starting", zap.String("session_id", sessionID))

	if err := os.MkdirAll(c.cfg.Engine.OutputDir, 0o755); err != nil {
		c.finish()
		return fmt.Errorf("output dir: %w", err)
	}
	outputPath := filepath.Join(c.cfg.Engine.OutputDir,
		fmt.Sprintf("clinicalq-%s.json", sessionID))

	unsubscribe := c.runner.Subscribe(c.handleEvent)

	go func() {
		defer unsubscribe()
		defer cancel()
		doc, err := c.runner.Run(runCtx, c.cfg.Session, outputPath)
		c.finish()

		switch {
		case doc != nil:
			c.publishResult(doc, sessionID, "live session")
		case err != nil && !c.stoppedLocally():
			c.log.Warn("session failed", zap.String("session_id", sessionID), zap.Error(err))
			c.fail(err.Error())
		}
	}()
	return nil
}

// handleEvent folds one engine event through the runtime and fans the
// outcome out to the sink and the cue scheduler.
func (c *Controller) handleEvent(ev event.Event) {
	c.mu.Lock()
	rt := c.runtime
	sink := c.sink
	if rt == nil {
		c.mu.Unlock()
		return
	}
	before := rt.Phase()
	effects := rt.Apply(ev)
	after := rt.Phase()
	epoch := rt.Epoch()
	c.mu.Unlock()

	if after != before && sink.Phase != nil {
		sink.Phase(after)
	}

	switch e := ev.(type) {
	case event.EpochStart:
		if sink.Epoch != nil && epoch != nil {
			sink.Epoch(*epoch)
		}
	case event.EpochTick:
		if sink.Tick != nil {
			sink.Tick(e)
		}
	case event.Bandpower:
		if sink.Bandpower != nil {
			sink.Bandpower(e)
		}
	case event.Log:
		if sink.Log != nil {
			sink.Log(e.Stream, e.Message)
		}
	case event.Error:
		if sink.Failure != nil {
			sink.Failure(e.Message)
		}
	case event.Unknown:
		c.log.Debug("unknown engine event", zap.String("tag", e.Tag))
	}

	for _, eff := range effects {
		switch e := eff.(type) {
		case session.CueStart:
			c.cues.Play(e.Label)
			if sink.Cue != nil {
				sink.Cue(e.Label, false)
			}
		case session.CueNext:
			c.cues.PlayNext()
			if sink.Cue != nil {
				sink.Cue(e.Label, true)
			}
		case session.GateOpened:
			if sink.Gate != nil {
				sink.Gate(e.Location, true)
			}
		case session.GateCleared:
			if sink.Gate != nil {
				sink.Gate(e.Location, false)
			}
		}
	}
}

// Ready claims the open reposition gate for location and tells the
// engine to proceed. At most one Ready succeeds per gate.
func (c *Controller) Ready(location string) CommandResult {
	c.mu.Lock()
	rt := c.runtime
	c.mu.Unlock()

	if rt == nil || !rt.ClaimGate(location) {
		return CommandResult{Message: fmt.Sprintf("no reposition waiting for %s", location)}
	}
	if err := c.runner.SendCommand(engine.Command{Command: "ready", NextLocation: location}); err != nil {
		return CommandResult{Message: err.Error()}
	}
	c.log.Info("ready sent", zap.String("location", location))
	return CommandResult{OK: true, Message: fmt.Sprintf("continuing at %s", location)}
}

// StopSession moves the session to Stopped immediately and asks the
// engine to shut down. It never waits for engine acknowledgement.
func (c *Controller) StopSession() CommandResult {
	c.mu.Lock()
	rt := c.runtime
	sink := c.sink
	c.mu.Unlock()
	if rt == nil {
		return CommandResult{Message: "no active session"}
	}
	rt.Stop()
	if sink.Phase != nil {
		sink.Phase(session.PhaseStopped)
	}
	c.runner.Stop()
	c.log.Info("session stop requested")
	return CommandResult{OK: true, Message: "session stopped"}
}

// Import normalizes a previously written result artifact.
func (c *Controller) Import(path string) (Report, error) {
	doc, err := engine.LoadResultDocument(path)
	if err != nil {
		return Report{}, err
	}
	records, summary, err := metrics.Normalize(doc)
	if err != nil {
		return Report{}, fmt.Errorf("normalizing %s: %w", filepath.Base(path), err)
	}
	return Report{Source: "imported file", Records: records, Summary: summary}, nil
}

// Phase reports the current session phase.
func (c *Controller) Phase() session.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runtime == nil {
		return session.PhaseIdle
	}
	return c.runtime.Phase()
}

// Epoch reports the current epoch context, or nil outside an epoch.
func (c *Controller) Epoch() *session.EpochContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runtime == nil {
		return nil
	}
	return c.runtime.Epoch()
}

// Gate reports the location an open reposition gate is waiting on.
func (c *Controller) Gate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runtime == nil {
		return ""
	}
	return c.runtime.Gate()
}

// Series returns the live sample series for one location and band.
func (c *Controller) Series(location, band string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runtime == nil {
		return nil
	}
	return c.runtime.Bands().Series(location, band)
}

// Latest returns the newest bandpower sample for location and band.
func (c *Controller) Latest(location, band string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runtime == nil {
		return 0, false
	}
	return c.runtime.Bands().Latest(location, band)
}

// SessionID returns the identifier of the current or last session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Health samples the engine process.
func (c *Controller) Health() engine.Health { return c.runner.Health() }

func (c *Controller) finish() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

func (c *Controller) stoppedLocally() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runtime != nil && c.runtime.Phase() == session.PhaseStopped
}

func (c *Controller) fail(msg string) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink.Failure != nil {
		sink.Failure(msg)
	}
}

func (c *Controller) publishResult(doc map[string]any, sessionID, source string) {
	records, summary, err := metrics.Normalize(doc)
	if err != nil {
		c.log.Warn("result normalization failed", zap.Error(err))
		c.fail(fmt.Sprintf("result normalization: %v", err))
		return
	}
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink.Result != nil {
		sink.Result(Report{
			SessionID: sessionID,
			Source:    source,
			Records:   records,
			Summary:   summary,
		})
	}
	c.log.Info("result published",
		zap.String("session_id", sessionID),
		zap.Int("records", len(records)),
		zap.Int("out_of_range", summary.OutOfRange))
}
