package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
)

// DefaultGracePeriod is how long Stop waits after SIGTERM before SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// ExecConfig holds configuration for an ExecRunner.
type ExecConfig struct {
	Logger    *slog.Logger
	Callbacks Callbacks

	// GracePeriod defaults to DefaultGracePeriod.
	GracePeriod time.Duration

	// Verbose logs every output line instead of warnings only.
	Verbose bool

	// Stdout and Stderr, when set, receive a copy of every output line.
	Stdout io.Writer
	Stderr io.Writer
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	cfg ExecConfig
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates a runner with the given configuration.
func NewExecRunner(cfg ExecConfig) *ExecRunner {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &ExecRunner{cfg: cfg}
}

// Run spawns inv and waits for it to exit, or to become ready when inv has
// a readiness pattern. If ctx is cancelled first the process is stopped and
// ctx's error returned. Once Run has returned a ready process, ctx no longer
// affects it; use Process.Stop.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(inv.Binary, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stderr pipe")
	}

	output := logging.NewOutputHandler(inv.Binary, r.cfg.Logger, r.cfg.Verbose)
	p := newProcess(inv, cmd, output, r.cfg.Logger, r.cfg.GracePeriod)
	output.OnLine(r.lineFunc(p))

	p.started = time.Now()
	if err := cmd.Start(); err != nil {
		r.cfg.Logger.Error("process_start_failed",
			"binary", inv.Binary,
			"subcommand", inv.Subcommand,
			"error", err,
		)
		return nil, errors.Wrapf(err, "start %s", inv.Binary)
	}
	p.setState(StateRunning)

	pid := cmd.Process.Pid
	r.cfg.Logger.Info("process_started",
		"binary", inv.Binary,
		"subcommand", inv.Subcommand,
		"pid", pid,
		"args", inv.Args,
		"wait_ready", inv.Ready != nil,
	)
	if r.cfg.Callbacks.OnStart != nil {
		r.cfg.Callbacks.OnStart(inv, pid)
	}

	var g errgroup.Group
	g.Go(func() error {
		return errors.Wrap(output.HandleReader(Stdout.String(), stdout), "read stdout")
	})
	g.Go(func() error {
		return errors.Wrap(output.HandleReader(Stderr.String(), stderr), "read stderr")
	})
	go p.wait(&g, r.cfg.Callbacks)

	return r.await(ctx, p)
}

// lineFunc copies lines to the passthrough writers and detects readiness.
func (r *ExecRunner) lineFunc(p *Process) func(stream, line string) {
	var mu sync.Mutex
	return func(stream, line string) {
		s := Stdout
		w := r.cfg.Stdout
		if stream == Stderr.String() {
			s = Stderr
			w = r.cfg.Stderr
		}
		if w != nil {
			mu.Lock()
			fmt.Fprintln(w, line)
			mu.Unlock()
		}
		if p.inv.Ready.watches(s) && p.inv.Ready.Pattern.MatchString(line) {
			p.markReady()
		}
	}
}

func (r *ExecRunner) await(ctx context.Context, p *Process) (*Process, error) {
	if p.inv.Ready == nil {
		select {
		case <-p.done:
		case <-ctx.Done():
			return nil, r.abort(p, ctx.Err())
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}
		return p, nil
	}

	select {
	case <-p.ready:
		r.ready(p)
		return p, nil
	case <-p.done:
		// the pattern may have matched on the final lines
		if p.isReady() {
			r.ready(p)
			return p, nil
		}
		return nil, p.exitError(ErrNotReady)
	case <-ctx.Done():
		return nil, r.abort(p, ctx.Err())
	}
}

func (r *ExecRunner) ready(p *Process) {
	after := time.Since(p.started)
	r.cfg.Logger.Info("process_ready",
		"binary", p.inv.Binary,
		"subcommand", p.inv.Subcommand,
		"pid", p.Pid(),
		"after", after.String(),
	)
	if r.cfg.Callbacks.OnReady != nil {
		r.cfg.Callbacks.OnReady(p.inv, p.Pid(), after)
	}
}

// abort stops p after ctx ended and returns cause.
func (r *ExecRunner) abort(p *Process, cause error) error {
	r.cfg.Logger.Warn("process_aborted",
		"binary", p.inv.Binary,
		"pid", p.Pid(),
		"reason", cause,
	)
	if err := p.Stop(context.Background()); err != nil {
		r.cfg.Logger.Error("process_stop_failed", "binary", p.inv.Binary, "error", err)
	}
	return cause
}
