// Package cli implements the go-fabric-cmd command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/randomizedcoder/go-fabric-cmd/internal/config"
	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
	"github.com/randomizedcoder/go-fabric-cmd/internal/metrics"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
	"github.com/randomizedcoder/go-fabric-cmd/internal/tui"
)

const rootLong = `go-fabric-cmd builds and runs command lines for the Hyperledger Fabric
binaries (configtxlator, osnadmin, fabric-ca-server, fabric-ca-client, peer
and orderer) from typed option groups, and installs those binaries with the
Fabric install script.`

// app holds the state shared by every subcommand of one invocation.
type app struct {
	version string
	cfg     *config.Config
	logger  *slog.Logger

	registry  *prometheus.Registry
	collector *metrics.Collector
	server    *metrics.Server
}

func newApp(version string, lookup func(string) (string, bool)) *app {
	cfg := config.DefaultConfig()
	config.ApplyEnv(cfg, lookup)
	registry := prometheus.NewRegistry()
	return &app{
		version:   version,
		cfg:       cfg,
		logger:    logging.Discard(),
		registry:  registry,
		collector: metrics.NewCollectorWithRegistry(version, registry),
	}
}

// Main runs the CLI with the process arguments and returns the exit code.
func Main(version string) int {
	return Run(version, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command tree with args. SIGINT and SIGTERM cancel the
// command's context. It returns 0 on success and 1 on any error.
func Run(version string, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(version, os.LookupEnv)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(stderr, tui.RenderError(err.Error()))
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "go-fabric-cmd",
		Short:             "Build and run Hyperledger Fabric command lines",
		Long:              rootLong,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}
	config.BindFlags(cmd.PersistentFlags(), a.cfg)

	cmd.AddCommand(
		a.updateCmd(),
		a.setupCmd(),
		a.runCmd(),
		a.preflightCmd(),
		a.versionCmd(),
	)
	return cmd
}

// prepare validates the configuration, builds the logger and starts the
// metrics server when --metrics is set.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	if err := config.Validate(a.cfg); err != nil {
		return err
	}

	level := a.cfg.LogLevel
	switch {
	case cmd.Name() == "setup" && a.cfg.TUIEnabled:
		// log lines would tear the progress view
		a.logger = logging.Discard()
	case cmd.ErrOrStderr() == os.Stderr:
		a.logger = logging.NewLogger(a.cfg.LogFormat, level, a.cfg.Verbose)
	default:
		if a.cfg.Verbose {
			level = "debug"
		}
		a.logger = logging.NewLoggerWithWriter(cmd.ErrOrStderr(), a.cfg.LogFormat, level)
	}

	if a.cfg.MetricsAddr == "" {
		return nil
	}
	a.server = metrics.NewServer(a.cfg.MetricsAddr, a.registry, a.logger)
	if err := a.server.Start(); err != nil {
		a.server = nil
		return errors.Wrap(err, "start metrics server")
	}
	return nil
}

// close stops the metrics server.
func (a *app) close() {
	if a.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("metrics_shutdown_failed", "error", err)
	}
}

// execRunner returns a runner reporting to the metrics collector.
func (a *app) execRunner(stdout, stderr io.Writer) *process.ExecRunner {
	return process.NewExecRunner(process.ExecConfig{
		Logger:      a.logger,
		Callbacks:   a.collector.Callbacks(),
		GracePeriod: a.cfg.GracePeriod,
		Verbose:     a.cfg.Verbose,
		Stdout:      stdout,
		Stderr:      stderr,
	})
}

// printSummary writes the run summary when at least one process started.
func (a *app) printSummary(w io.Writer) {
	s := a.collector.GenerateSummary()
	if s.Starts == 0 {
		return
	}
	fmt.Fprint(w, metrics.FormatSummary(s, a.cfg.MetricsAddr))
}
