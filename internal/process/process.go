package process

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
)

// outputLinesInError is how many recent output lines an ExitError carries.
const outputLinesInError = 10

// Process is a spawned Fabric binary. It is safe for concurrent use.
type Process struct {
	inv    Invocation
	cmd    *exec.Cmd
	output *logging.OutputHandler
	logger *slog.Logger
	grace  time.Duration

	started   time.Time
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	state    State
	exitCode int
	waitErr  error
	stopped  bool
	uptime   time.Duration
}

func newProcess(inv Invocation, cmd *exec.Cmd, output *logging.OutputHandler, logger *slog.Logger, grace time.Duration) *Process {
	return &Process{
		inv:    inv,
		cmd:    cmd,
		output: output,
		logger: logger,
		grace:  grace,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		state:  StateStarting,
	}
}

// Invocation returns the command line the process was started with.
func (p *Process) Invocation() Invocation {
	return p.inv
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Process) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Ready is closed when the readiness pattern is first observed.
func (p *Process) Ready() <-chan struct{} {
	return p.ready
}

// Done is closed once the process has exited and its output is drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) isReady() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

func (p *Process) markReady() {
	p.readyOnce.Do(func() {
		p.mu.Lock()
		if p.state == StateRunning {
			p.state = StateReady
		}
		p.mu.Unlock()
		close(p.ready)
	})
}

// ExitCode returns the exit code, or -1 while the process is alive.
// A process killed by a signal reports 128 + signal number.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
	default:
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Uptime returns how long the process has been (or was) running.
func (p *Process) Uptime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateExited {
		return p.uptime
	}
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

// RecentOutput returns up to n of the most recent stdout/stderr lines.
func (p *Process) RecentOutput(n int) []string {
	return p.output.RecentLines(n)
}

// Wait blocks until the process exits. It returns nil for exit code 0 or
// when the exit was caused by Stop, and an *ExitError otherwise.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || (p.exitCode == 0 && p.waitErr == nil) {
		return nil
	}
	return p.exitErrorLocked(p.waitErr)
}

func (p *Process) exitErrorLocked(err error) *ExitError {
	return &ExitError{
		Binary: p.inv.Binary,
		Code:   p.exitCode,
		Output: p.output.RecentLines(outputLinesInError),
		Err:    err,
	}
}

func (p *Process) exitError(err error) *ExitError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErrorLocked(err)
}

// Stop terminates the process group with SIGTERM and escalates to SIGKILL
// after the grace period or when ctx is done. It returns once the process
// has exited.
func (p *Process) Stop(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.logger.Debug("process_stopping", "binary", p.inv.Binary, "pid", p.Pid())
	if err := terminate(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "terminate %s", p.inv.Binary)
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	p.logger.Warn("process_kill",
		"binary", p.inv.Binary,
		"pid", p.Pid(),
		"grace", p.grace.String(),
	)
	if err := kill(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "kill %s", p.inv.Binary)
	}
	<-p.done
	return nil
}

// wait drains both output streams, reaps the process and records the exit.
func (p *Process) wait(g *errgroup.Group, cb Callbacks) {
	pumpErr := g.Wait()
	waitErr := p.cmd.Wait()
	code := extractExitCode(waitErr)

	if pumpErr != nil {
		p.logger.Warn("process_output_error", "binary", p.inv.Binary, "error", pumpErr)
	}

	p.mu.Lock()
	p.state = StateExited
	p.exitCode = code
	p.waitErr = waitErr
	p.uptime = time.Since(p.started)
	uptime := p.uptime
	p.mu.Unlock()

	p.logger.Info("process_exited",
		"binary", p.inv.Binary,
		"subcommand", p.inv.Subcommand,
		"pid", p.Pid(),
		"exit_code", code,
		"uptime", uptime.String(),
	)

	if cb.OnExit != nil {
		cb.OnExit(p.inv, code, uptime)
	}
	close(p.done)
}

// extractExitCode maps a Wait error to an exit code.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}

	return 1
}
