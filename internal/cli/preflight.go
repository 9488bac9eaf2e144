package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
	"github.com/randomizedcoder/go-fabric-cmd/internal/preflight"
)

func (a *app) preflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check that the Fabric binaries are installed and runnable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := preflight.RunAll(cmd.Context(), a.execRunner(io.Discard, io.Discard), a.cfg.BinDir, fabric.Binaries())
			preflight.PrintResults(cmd.OutOrStdout(), result)
			if !result.Passed {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
