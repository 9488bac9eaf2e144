package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/randomizedcoder/go-fabric-cmd/internal/args"
	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

// Components accepted by install-fabric.sh.
const (
	ComponentBinary  = "binary"
	ComponentDocker  = "docker"
	ComponentPodman  = "podman"
	ComponentSamples = "samples"
)

// ValidComponents lists the accepted components.
var ValidComponents = []string{ComponentBinary, ComponentDocker, ComponentPodman, ComponentSamples}

// ValidComponent reports whether c is accepted by the install script.
func ValidComponent(c string) bool {
	return slices.Contains(ValidComponents, c)
}

// EventKind classifies a setup progress event.
type EventKind int

const (
	// EventStarted is emitted before a component is installed.
	EventStarted EventKind = iota
	// EventOutput carries one line printed by the install script.
	EventOutput
	// EventFinished is emitted after a component, with Err on failure.
	EventFinished
	// EventConfigCopied is emitted once per copied config file.
	EventConfigCopied
)

// Event reports setup progress.
type Event struct {
	Kind      EventKind
	Component string
	Index     int
	Total     int
	Line      string
	Elapsed   time.Duration
	Err       error
}

// SetupOptions configures Setup.
type SetupOptions struct {
	// Script defaults to ./install-fabric.sh.
	Script        string
	FabricVersion string
	CAVersion     string
	Components    []string

	// WorkDir is where the script downloads to. Defaults to the current
	// directory.
	WorkDir string

	// ConfigSrc defaults to WorkDir/config, where the binary component
	// unpacks core.yaml, orderer.yaml and configtx.yaml.
	ConfigSrc string

	// Dest receives a copy of the config files. Empty skips the copy.
	Dest string
}

// Config holds the collaborators of an Installer.
type Config struct {
	Logger    *slog.Logger
	Callbacks process.Callbacks

	// Progress receives setup events. Called from the setup goroutine and
	// from output readers.
	Progress func(Event)

	// Runner overrides the exec runner built per component.
	Runner process.Runner
}

// Installer runs the install script.
type Installer struct {
	cfg Config
}

// New creates an Installer.
func New(cfg Config) *Installer {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Progress == nil {
		cfg.Progress = func(Event) {}
	}
	return &Installer{cfg: cfg}
}

// ScriptArgs returns the arguments passed to the install script for one
// component.
func ScriptArgs(opts SetupOptions, component string) []string {
	m := args.NewMap()
	if opts.FabricVersion != "" {
		m.Set("fabric-version", args.String(opts.FabricVersion))
	}
	if opts.CAVersion != "" {
		m.Set("ca-version", args.String(opts.CAVersion))
	}
	return append(args.Serialize(m), component)
}

// Setup installs each component in order, stopping at the first failure,
// then copies the config files to opts.Dest.
func (i *Installer) Setup(ctx context.Context, opts SetupOptions) error {
	if len(opts.Components) == 0 {
		return errors.New("no components to install")
	}
	for _, c := range opts.Components {
		if !ValidComponent(c) {
			return errors.Errorf("unknown component %q, valid: %s", c, strings.Join(ValidComponents, ", "))
		}
	}
	if opts.Script == "" {
		opts.Script = "./" + DefaultScriptName
	}
	if opts.ConfigSrc == "" {
		opts.ConfigSrc = filepath.Join(opts.WorkDir, "config")
	}

	total := len(opts.Components)
	for idx, component := range opts.Components {
		if err := i.installComponent(ctx, opts, component, idx, total); err != nil {
			return err
		}
	}

	if opts.Dest == "" {
		return nil
	}
	return i.copyConfig(opts.ConfigSrc, opts.Dest)
}

func (i *Installer) installComponent(ctx context.Context, opts SetupOptions, component string, idx, total int) error {
	inv := process.Invocation{
		Binary:     opts.Script,
		Subcommand: component,
		Args:       ScriptArgs(opts, component),
		Dir:        opts.WorkDir,
	}

	i.cfg.Logger.Info("setup_component_started",
		"component", component,
		"step", idx+1,
		"total", total,
	)
	i.cfg.Progress(Event{Kind: EventStarted, Component: component, Index: idx, Total: total})

	start := time.Now()
	_, err := i.runner(component, idx, total).Run(ctx, inv)
	elapsed := time.Since(start)
	if err != nil {
		err = errors.Wrapf(err, "install %s", component)
	}

	i.cfg.Progress(Event{
		Kind:      EventFinished,
		Component: component,
		Index:     idx,
		Total:     total,
		Elapsed:   elapsed,
		Err:       err,
	})
	if err != nil {
		i.cfg.Logger.Error("setup_component_failed", "component", component, "error", err)
		return err
	}
	i.cfg.Logger.Info("setup_component_finished", "component", component, "elapsed", elapsed.String())
	return nil
}

// runner returns the configured runner, or an exec runner whose output is
// turned into progress events for component.
func (i *Installer) runner(component string, idx, total int) process.Runner {
	if i.cfg.Runner != nil {
		return i.cfg.Runner
	}
	w := &eventWriter{emit: func(line string) {
		i.cfg.Progress(Event{Kind: EventOutput, Component: component, Index: idx, Total: total, Line: line})
	}}
	return process.NewExecRunner(process.ExecConfig{
		Logger:    i.cfg.Logger,
		Callbacks: i.cfg.Callbacks,
		Stdout:    w,
		Stderr:    w,
	})
}

// eventWriter emits one event per line written.
type eventWriter struct {
	mu   sync.Mutex
	emit func(line string)
}

func (w *eventWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.emit(line)
	}
	return len(p), nil
}

// copyConfig copies the regular files of src into dest.
func (i *Installer) copyConfig(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "read config dir %s", src)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dest)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dest, e.Name())
		if err := copyFile(from, to); err != nil {
			return err
		}
		i.cfg.Logger.Debug("config_copied", "from", from, "to", to)
		i.cfg.Progress(Event{Kind: EventConfigCopied, Line: to})
	}
	return nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return errors.Wrapf(err, "open %s", from)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", from)
	}
	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "create %s", to)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copy %s", from)
	}
	return errors.Wrapf(out.Close(), "close %s", to)
}

// String renders the event for plain progress output.
func (e Event) String() string {
	switch e.Kind {
	case EventStarted:
		return fmt.Sprintf("[%d/%d] installing %s", e.Index+1, e.Total, e.Component)
	case EventFinished:
		if e.Err != nil {
			return fmt.Sprintf("[%d/%d] %s failed: %v", e.Index+1, e.Total, e.Component, e.Err)
		}
		return fmt.Sprintf("[%d/%d] %s done in %s", e.Index+1, e.Total, e.Component, e.Elapsed.Round(time.Millisecond))
	case EventConfigCopied:
		return "copied " + e.Line
	default:
		return e.Line
	}
}
