package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-fabric-cmd/internal/config"
	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
	"github.com/randomizedcoder/go-fabric-cmd/internal/tui"
)

func (a *app) setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install Fabric binaries, images or samples with the install script",
		Example: `  go-fabric-cmd setup --fabric-version 2.5.12 --ca-version 1.5.15 \
    --components binary --config-dest /etc/hyperledger/fabric`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.OutOrStdout())
		},
	}
	config.BindSetupFlags(cmd.Flags(), a.cfg)
	return cmd
}

func (a *app) setupOptions() install.SetupOptions {
	return install.SetupOptions{
		Script:        a.cfg.Script,
		FabricVersion: a.cfg.FabricVersion,
		CAVersion:     a.cfg.CAVersion,
		Components:    a.cfg.Components,
		WorkDir:       a.cfg.WorkDir,
		ConfigSrc:     a.cfg.ConfigSrc,
		Dest:          a.cfg.ConfigDest,
	}
}

func (a *app) setup(ctx context.Context, stdout io.Writer) error {
	opts := a.setupOptions()
	if a.cfg.TUIEnabled {
		return a.setupWithProgress(ctx, opts)
	}

	inst := install.New(install.Config{
		Logger:    a.logger,
		Callbacks: a.collector.Callbacks(),
		Progress: func(e install.Event) {
			fmt.Fprintln(stdout, e.String())
		},
	})
	return inst.Setup(ctx, opts)
}

// setupWithProgress runs Setup in the background while the progress view
// owns the terminal. Quitting the view cancels the install.
func (a *app) setupWithProgress(ctx context.Context, opts install.SetupOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.New(tui.Config{
		Components:    opts.Components,
		FabricVersion: opts.FabricVersion,
		CAVersion:     opts.CAVersion,
		Cancel:        cancel,
	}))

	inst := install.New(install.Config{
		Logger:    a.logger,
		Callbacks: a.collector.Callbacks(),
		Progress: func(e install.Event) {
			tui.SendEvent(p, e)
		},
	})

	var g errgroup.Group
	g.Go(func() error {
		err := inst.Setup(ctx, opts)
		tui.SendDone(p, err)
		return err
	})

	_, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	setupErr := g.Wait()
	if runErr != nil {
		return errors.Wrap(runErr, "progress view")
	}
	return setupErr
}
