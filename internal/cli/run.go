package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/config"
	"github.com/randomizedcoder/go-fabric-cmd/internal/job"
	"github.com/randomizedcoder/go-fabric-cmd/internal/preflight"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
	"github.com/randomizedcoder/go-fabric-cmd/internal/tui"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -f job.yaml",
		Short: "Run one Fabric binary invocation described by a job file",
		Example: `  go-fabric-cmd run -f encode.yaml --print-cmd
  go-fabric-cmd --bin-dir ./bin run -f orderer.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	config.BindRunFlags(cmd.Flags(), a.cfg)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) run(ctx context.Context, stdout, stderr io.Writer) error {
	j, err := job.Load(a.cfg.JobFile)
	if err != nil {
		return err
	}

	opts := []command.Option{
		command.WithLogger(a.logger),
		command.WithRunner(a.execRunner(stdout, stderr)),
	}
	if a.cfg.BinDir != "" && !a.cfg.PrintCmd {
		path, err := preflight.Resolve(a.cfg.BinDir, j.Binary)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", j.Binary)
		}
		opts = append(opts, command.WithBinaryPath(path))
	}

	b, err := j.Builder(opts...)
	if err != nil {
		return err
	}

	if a.cfg.PrintCmd {
		fmt.Fprintln(stdout, tui.RenderCommand(b.Build()))
		return nil
	}

	p, err := b.Execute(ctx)
	if err != nil {
		if a.cfg.Verbose {
			a.printSummary(stderr)
		}
		return err
	}

	if p.Invocation().Ready != nil {
		err = a.serve(ctx, p)
		a.printSummary(stderr)
		return err
	}
	if a.cfg.Verbose {
		a.printSummary(stderr)
	}
	return nil
}

// serve keeps a ready process in the foreground until it exits or ctx is
// cancelled, then stops it. Without --wait it is stopped right away. The
// result is always the process's own exit status, so a server that crashes
// right after becoming ready fails the run.
func (a *app) serve(ctx context.Context, p *process.Process) error {
	inv := p.Invocation()
	if a.cfg.Wait {
		a.logger.Info("serving",
			"binary", inv.Binary,
			"subcommand", inv.Subcommand,
			"pid", p.Pid(),
		)
		select {
		case <-ctx.Done():
		case <-p.Done():
			return p.Wait()
		}
	}

	if err := p.Stop(context.Background()); err != nil {
		return err
	}
	return p.Wait()
}
