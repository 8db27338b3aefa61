// Package stream supervises the external HLS transcoding process.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sleep-404/SmartDarshan/internal/events"
	"github.com/sleep-404/SmartDarshan/internal/metrics"
)

// State is the supervised process lifecycle. A fresh Running instance is
// only ever entered through Start or an explicit Restart; there is no
// automatic respawn on exit.
type State string

const (
	NotStarted State = "not_started"
	Running    State = "running"
	Exited     State = "exited"
)

// stopGrace is how long Stop waits for the child to exit after SIGTERM
// before killing it.
const stopGrace = 5 * time.Second

// ErrSourceMissing is returned by Start when the source media file does not
// exist; no process is spawned and the state stays NotStarted.
var ErrSourceMissing = fmt.Errorf("stream: source media file missing")

// Supervisor owns the lifecycle of exactly one ffmpeg child looping a source
// file into a rolling HLS playlist under the output directory.
type Supervisor struct {
	source    string
	outDir    string
	publisher events.Publisher
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd
	done  chan struct{}

	// buildCmd is swapped in tests to avoid requiring ffmpeg on PATH.
	buildCmd func() *exec.Cmd
}

// New creates a supervisor for the given source file and output directory.
func New(source, outDir string, pub events.Publisher, logger *slog.Logger) *Supervisor {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		source:    source,
		outDir:    outDir,
		publisher: pub,
		logger:    logger,
		state:     NotStarted,
	}
	s.buildCmd = s.ffmpegCmd
	metrics.StreamState.Set(0)
	return s
}

// ffmpegCmd builds the transcoder invocation: infinite input loop at realtime
// pace, 2-second segments, a six-segment rolling window with old segments
// deleted, and low-latency encoding tuning.
func (s *Supervisor) ffmpegCmd() *exec.Cmd {
	return exec.Command("ffmpeg",
		"-stream_loop", "-1",
		"-re",
		"-i", s.source,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-g", "50",
		"-an",
		"-f", "hls",
		"-hls_time", "2",
		"-hls_list_size", "6",
		"-hls_flags", "delete_segments",
		"-hls_segment_filename", filepath.Join(s.outDir, "segment_%03d.ts"),
		filepath.Join(s.outDir, "stream.m3u8"),
	)
}

// Start spawns the transcoder. Idempotent: a second call while Running logs
// and returns nil without spawning another child. A missing source fails
// fast and leaves the state NotStarted.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		s.logger.Info("stream already running", "pid", s.cmd.Process.Pid)
		return nil
	}

	if _, err := os.Stat(s.source); err != nil {
		s.state = NotStarted
		return fmt.Errorf("%w: %s", ErrSourceMissing, s.source)
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return fmt.Errorf("stream: create output dir: %w", err)
	}

	cmd := s.buildCmd()
	if err := cmd.Start(); err != nil {
		s.state = NotStarted
		return fmt.Errorf("stream: spawn transcoder: %w", err)
	}

	s.cmd = cmd
	s.state = Running
	s.done = make(chan struct{})
	metrics.StreamState.Set(1)
	s.logger.Info("stream transcoder started", "pid", cmd.Process.Pid, "source", s.source, "out", s.outDir)

	if err := s.publisher.Publish(ctx, events.TopicStreamStarted, events.StreamLifecycle{State: string(Running), PID: cmd.Process.Pid}); err != nil {
		s.logger.Warn("failed to publish stream event", "err", err)
	}

	go s.wait(cmd, s.done)
	return nil
}

// wait blocks on the child and records the Exited transition. Exits for any
// reason, including non-zero codes, are logged; restart stays explicit.
func (s *Supervisor) wait(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd == cmd {
		s.state = Exited
		metrics.StreamState.Set(2)
	}
	s.mu.Unlock()
	close(done)

	if err != nil {
		s.logger.Warn("stream transcoder exited", "err", err)
	} else {
		s.logger.Info("stream transcoder exited")
	}
	if perr := s.publisher.Publish(context.Background(), events.TopicStreamExited, events.StreamLifecycle{State: string(Exited)}); perr != nil {
		s.logger.Warn("failed to publish stream event", "err", perr)
	}
}

// Restart terminates a running child, then starts a fresh one. This is the
// only path back to Running after an exit.
func (s *Supervisor) Restart(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// Stop requests graceful termination of the child and waits briefly before
// escalating to a kill. No-op unless Running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	cmd, done := s.cmd, s.done
	s.mu.Unlock()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		s.logger.Warn("failed to signal transcoder", "err", err)
	}
	select {
	case <-done:
	case <-time.After(stopGrace):
		s.logger.Warn("transcoder did not exit in time, killing", "pid", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		<-done
	}
}

// Status returns the current state and child PID (0 when not running).
func (s *Supervisor) Status() (State, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := 0
	if s.state == Running && s.cmd != nil && s.cmd.Process != nil {
		pid = s.cmd.Process.Pid
	}
	return s.state, pid
}
