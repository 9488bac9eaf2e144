// Package process spawns Fabric binaries and tracks them until they exit or
// report readiness on their output.
package process

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Stream selects which output stream a readiness pattern is matched against.
type Stream int

const (
	// Stdout matches the pattern against standard output only.
	Stdout Stream = iota
	// Stderr matches the pattern against standard error only.
	Stderr
	// Both matches the pattern against either stream.
	Both
)

// String returns the stream name used in log records.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Readiness describes when a long-running process counts as started.
type Readiness struct {
	Pattern *regexp.Regexp
	Stream  Stream
}

// NewReadiness compiles pattern into a Readiness watching stream.
func NewReadiness(pattern string, stream Stream) *Readiness {
	return &Readiness{Pattern: regexp.MustCompile(pattern), Stream: stream}
}

// watches reports whether lines of s are matched.
func (r *Readiness) watches(s Stream) bool {
	if r == nil || r.Pattern == nil {
		return false
	}
	return r.Stream == Both || r.Stream == s
}

// Invocation is a fully rendered command line for one Fabric binary.
type Invocation struct {
	// Binary is the executable name or path.
	Binary string

	// Subcommand is the active subcommand, kept for logs and metrics labels.
	Subcommand string

	// Args are the tokens after the binary.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds KEY=VALUE pairs added to the inherited environment.
	Env []string

	// Ready, when set, makes Run return as soon as the pattern is seen
	// instead of waiting for the process to exit.
	Ready *Readiness
}

// String returns the command line joined with single spaces.
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Binary}, inv.Args...), " ")
}

// Runner spawns invocations.
type Runner interface {
	// Run starts inv. Without a readiness pattern it blocks until the process
	// exits and fails on a non-zero exit code. With a readiness pattern it
	// returns the still running process once the pattern is observed.
	Run(ctx context.Context, inv Invocation) (*Process, error)
}

// Callbacks contains optional callback functions for process events.
type Callbacks struct {
	// OnStart is called after the process has been spawned.
	OnStart func(inv Invocation, pid int)

	// OnReady is called when the readiness pattern is first observed.
	OnReady func(inv Invocation, pid int, after time.Duration)

	// OnExit is called once the process has exited and its output is drained.
	OnExit func(inv Invocation, exitCode int, uptime time.Duration)
}
