// Package command implements the builder shared by every Fabric binary:
// it tracks the active subcommand, guards option groups against
// subcommands that do not accept them, stores options per subcommand and
// renders the final invocation.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/randomizedcoder/go-fabric-cmd/internal/args"
	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

// ErrUnsupportedCommand is wrapped by UnsupportedCommandError.
var ErrUnsupportedCommand = errors.New("option not supported by command")

// UnsupportedCommandError is returned when an option group is set while the
// active subcommand is not one of the group's allowed subcommands.
type UnsupportedCommandError struct {
	Binary  string
	Command string
	Allowed []string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("%s: command %q does not accept this option, allowed: [%s]",
		e.Binary, e.Command, strings.Join(e.Allowed, ", "))
}

func (e *UnsupportedCommandError) Unwrap() error {
	return ErrUnsupportedCommand
}

// Builder accumulates subcommand-scoped options for one binary.
// A Builder is owned by a single goroutine.
type Builder[C ~string] struct {
	binary    string
	execPath  string
	prefix    []string
	active    C
	args      map[C]*args.Map
	readiness map[C]*process.Readiness
	env       []string
	dir       string

	runner process.Runner
	logger *slog.Logger
}

// Option configures a Builder at construction.
type Option func(*options)

type options struct {
	runner   process.Runner
	logger   *slog.Logger
	prefix   []string
	execPath string
}

// WithRunner sets the Runner used by Execute.
func WithRunner(r process.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLogger sets the logger used by Execute.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPrefix sets fixed tokens placed between the binary and the subcommand,
// such as osnadmin's "channel".
func WithPrefix(tokens ...string) Option {
	return func(o *options) { o.prefix = append([]string(nil), tokens...) }
}

// WithBinaryPath overrides the executable spawned by Execute, for binaries
// that are not on PATH. Build keeps showing the plain binary name.
func WithBinaryPath(path string) Option {
	return func(o *options) { o.execPath = path }
}

// New creates a Builder for binary with initial as the active subcommand.
func New[C ~string](binary string, initial C, opts ...Option) *Builder[C] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.runner == nil {
		o.runner = process.NewExecRunner(process.ExecConfig{Logger: o.logger})
	}
	if o.execPath == "" {
		o.execPath = binary
	}
	return &Builder[C]{
		binary:    binary,
		execPath:  o.execPath,
		prefix:    o.prefix,
		active:    initial,
		args:      make(map[C]*args.Map),
		readiness: make(map[C]*process.Readiness),
		runner:    o.runner,
		logger:    o.logger,
	}
}

// Binary returns the binary name.
func (b *Builder[C]) Binary() string {
	return b.binary
}

// SetCommand makes c the active subcommand. Options stored for other
// subcommands are kept and become active again when they are reselected.
func (b *Builder[C]) SetCommand(c C) {
	b.active = c
}

// Command returns the active subcommand.
func (b *Builder[C]) Command() C {
	return b.active
}

// AssertCommand returns an *UnsupportedCommandError unless the active
// subcommand is one of allowed.
func (b *Builder[C]) AssertCommand(allowed ...C) error {
	if slices.Contains(allowed, b.active) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, c := range allowed {
		names[i] = string(c)
	}
	return &UnsupportedCommandError{
		Binary:  b.binary,
		Command: string(b.active),
		Allowed: names,
	}
}

// SetCommandArg stores key → v for subcommand c. Undefined values are
// ignored.
func (b *Builder[C]) SetCommandArg(c C, key string, v args.Value) {
	if !v.Defined() {
		return
	}
	m, ok := b.args[c]
	if !ok {
		m = args.NewMap()
		b.args[c] = m
	}
	m.Set(key, v)
}

// SetOptions stores the defined fields of an option group for the active
// subcommand. A nil group is a no-op. The group is checked against allowed
// and fully encoded before anything is stored, so a failure leaves the
// builder unchanged.
func (b *Builder[C]) SetOptions(group any, allowed ...C) error {
	if isNil(group) {
		return nil
	}
	if err := b.AssertCommand(allowed...); err != nil {
		return err
	}
	fields, err := args.Fields(group)
	if err != nil {
		return errors.Wrapf(err, "%s %s", b.binary, b.active)
	}
	for _, f := range fields {
		b.SetCommandArg(b.active, f.Key, f.Value)
	}
	return nil
}

// SetValue asserts allowed and stores a single option for the active
// subcommand. An undefined value is a no-op, like a nil option group.
func (b *Builder[C]) SetValue(key string, v args.Value, allowed ...C) error {
	if !v.Defined() {
		return nil
	}
	if err := b.AssertCommand(allowed...); err != nil {
		return err
	}
	b.SetCommandArg(b.active, key, v)
	return nil
}

// CommandArgs returns a copy of the options stored for c.
func (b *Builder[C]) CommandArgs(c C) *args.Map {
	if m, ok := b.args[c]; ok {
		return m.Clone()
	}
	return args.NewMap()
}

// SetReadiness registers the readiness pattern used when c is executed.
func (b *Builder[C]) SetReadiness(c C, r *process.Readiness) {
	if r == nil {
		delete(b.readiness, c)
		return
	}
	b.readiness[c] = r
}

// SetEnv adds KEY=VALUE to the environment of the spawned process.
func (b *Builder[C]) SetEnv(key, value string) {
	b.env = append(b.env, key+"="+value)
}

// SetDir sets the working directory of the spawned process.
func (b *Builder[C]) SetDir(dir string) {
	b.dir = dir
}

// Args returns the subcommand tokens followed by the serialized options of
// the active subcommand.
func (b *Builder[C]) Args() []string {
	out := strings.Fields(string(b.active))
	return append(out, args.Serialize(b.args[b.active])...)
}

// Build renders the invocation as a single display string.
func (b *Builder[C]) Build() string {
	parts := append([]string{b.binary}, b.prefix...)
	return strings.Join(append(parts, b.Args()...), " ")
}

// Invocation returns the spawnable form of the active subcommand.
func (b *Builder[C]) Invocation() process.Invocation {
	argv := append(append([]string(nil), b.prefix...), b.Args()...)
	return process.Invocation{
		Binary:     b.execPath,
		Subcommand: string(b.active),
		Args:       argv,
		Dir:        b.dir,
		Env:        append([]string(nil), b.env...),
		Ready:      b.readiness[b.active],
	}
}

// Execute runs the active subcommand. For subcommands with a readiness
// pattern it returns once the process reports ready; otherwise once it has
// exited successfully. Failures are logged and returned; there is no retry.
func (b *Builder[C]) Execute(ctx context.Context) (*process.Process, error) {
	inv := b.Invocation()
	b.logger.Debug("execute_started",
		"binary", b.binary,
		"subcommand", string(b.active),
		"command", b.Build(),
	)
	p, err := b.runner.Run(ctx, inv)
	if err != nil {
		b.logger.Error("execute_failed",
			"binary", b.binary,
			"subcommand", string(b.active),
			"error", err,
		)
		return nil, errors.Wrapf(err, "execute %s %s", b.binary, b.active)
	}
	return p, nil
}

// isNil reports whether group is nil or a typed nil pointer.
func isNil(group any) bool {
	if group == nil {
		return true
	}
	v := reflect.ValueOf(group)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
