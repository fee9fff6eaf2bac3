// Package engine runs the external acquisition/analysis process and
// exposes it to the controller as three operations: run to completion,
// send one command line, stop. Every line the engine prints on either
// output channel is decoded and delivered, in arrival order, to a single
// registered consumer.
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicalq/console/internal/config"
	"github.com/clinicalq/console/internal/event"
)

// ErrEngineFailure marks an abnormal engine termination or a missing
// result artifact.
var ErrEngineFailure = errors.New("engine failure")

// ErrNotRunning is returned by SendCommand when no engine is attached.
var ErrNotRunning = errors.New("engine not running")

// maxLineBytes caps one engine output line; bandpower events stay well
// under this.
const maxLineBytes = 1 << 20

// Command is one outbound control line, written to the engine's stdin as
// a single JSON object per line.
type Command struct {
	Command      string `json:"command"`
	NextLocation string `json:"next_location,omitempty"`
}

// Runner owns one engine process at a time.
type Runner struct {
	log *zap.Logger
	cfg config.EngineConfig

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stopping bool

	writeMu sync.Mutex

	consumerMu sync.Mutex
	consumer   func(event.Event)
}

// New builds a runner. The logger may be zap.NewNop() in tests.
func New(log *zap.Logger, cfg config.EngineConfig) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, cfg: cfg}
}

// Subscribe registers the single event consumer and returns a disposer.
// The consumer is invoked from one dispatch goroutine, never concurrently.
func (r *Runner) Subscribe(fn func(event.Event)) func() {
	r.consumerMu.Lock()
	r.consumer = fn
	r.consumerMu.Unlock()
	return func() {
		r.consumerMu.Lock()
		r.consumer = nil
		r.consumerMu.Unlock()
	}
}

func (r *Runner) deliver(ev event.Event) {
	r.consumerMu.Lock()
	fn := r.consumer
	r.consumerMu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Run launches the engine for one session and blocks until it exits,
// delivering every output line as a decoded event along the way. On a
// clean exit it loads and returns the result artifact from outputPath.
func (r *Runner) Run(ctx context.Context, sc config.SessionConfig, outputPath string) (map[string]any, error) {
	cfgPath, err := r.writeEngineConfig(sc)
	if err != nil {
		return nil, err
	}
	defer os.Remove(cfgPath)

	argv := append(append([]string(nil), r.cfg.Command...),
		"--config", cfgPath, "--output", outputPath)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.cfg.WorkDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin: %v", ErrEngineFailure, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout: %v", ErrEngineFailure, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr: %v", ErrEngineFailure, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrEngineFailure, argv[0], err)
	}
	r.log.Info("engine started", zap.Int("pid", cmd.Process.Pid), zap.Strings("argv", argv))

	r.mu.Lock()
	r.cmd = cmd
	r.stdin = stdin
	r.stopping = false
	r.mu.Unlock()

	// Both output channels feed one dispatch goroutine so the consumer
	// sees a single ordered stream and never runs concurrently.
	lines := make(chan event.Event, 256)
	var scanners sync.WaitGroup
	scanners.Add(2)
	go r.scan(stdout, event.StreamStdout, lines, &scanners)
	go r.scan(stderr, event.StreamStderr, lines, &scanners)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range lines {
			r.deliver(ev)
		}
	}()

	scanners.Wait()
	close(lines)
	<-done

	waitErr := cmd.Wait()

	r.mu.Lock()
	wasStopping := r.stopping
	r.cmd = nil
	r.stdin = nil
	r.mu.Unlock()

	if wasStopping {
		return nil, nil
	}
	if waitErr != nil {
		r.log.Warn("engine exited abnormally", zap.Error(waitErr))
		return nil, fmt.Errorf("%w: %v", ErrEngineFailure, waitErr)
	}

	doc, err := LoadResultDocument(outputPath)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Runner) scan(src io.Reader, stream event.Stream, out chan<- event.Event, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		out <- event.Decode(line, stream)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		r.log.Debug("engine output closed", zap.String("stream", string(stream)), zap.Error(err))
	}
}

// SendCommand writes one command line to the engine's stdin. Writes are
// serialized; at most one caller holds the pipe at a time.
func (r *Runner) SendCommand(cmd Command) error {
	r.mu.Lock()
	stdin := r.stdin
	r.mu.Unlock()
	if stdin == nil {
		return ErrNotRunning
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if _, err := stdin.Write(data); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}
	return nil
}

// Stop requests engine termination and returns immediately. The engine
// gets SIGTERM, then SIGKILL after the configured grace period. Run
// unblocks on its own once the process is gone.
func (r *Runner) Stop() {
	r.mu.Lock()
	cmd := r.cmd
	stdin := r.stdin
	r.stopping = true
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	if stdin != nil {
		_ = stdin.Close()
	}

	proc := cmd.Process
	_ = proc.Signal(syscall.SIGTERM)

	grace := time.Duration(r.cfg.StopGraceSeconds) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}
	time.AfterFunc(grace, func() {
		r.mu.Lock()
		stillRunning := r.cmd != nil && r.cmd.Process == proc
		r.mu.Unlock()
		if stillRunning {
			_ = proc.Kill()
		}
	})
}

// Pid returns the running engine's PID, or 0.
func (r *Runner) Pid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil || r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}

// writeEngineConfig serializes the session parameters into the JSON
// config file the engine's --config flag expects.
func (r *Runner) writeEngineConfig(sc config.SessionConfig) (string, error) {
	payload := map[string]any{
		"mode":                     sc.Mode,
		"epoch_seconds":            sc.EpochSeconds,
		"reposition_seconds":       sc.RepositionSeconds,
		"reposition_mode":          sc.RepositionMode,
		"sampling_rate":            sc.SamplingRate,
		"fast_mode":                sc.FastMode,
		"live_bandpower":           sc.LiveBandpower,
		"live_window_seconds":      sc.LiveWindowSeconds,
		"include_frontal_baseline": sc.IncludeFrontalBaseline,
		"channels":                 sc.Channels,
		"sequential_order":         sc.SequentialOrder,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "clinicalq-engine-*.json")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	return f.Name(), nil
}

// LoadResultDocument reads a result artifact, scrubbing the non-finite
// numeric tokens the engine's serializer can emit, and parses it into a
// generic document for the normalizer.
func LoadResultDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: result artifact %s: %v", ErrEngineFailure, filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: result artifact %s is empty", ErrEngineFailure, filepath.Base(path))
	}

	var doc map[string]any
	if err := json.Unmarshal(event.ScrubNonFinite(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: result artifact %s: %v", ErrEngineFailure, filepath.Base(path), err)
	}
	return doc, nil
}
