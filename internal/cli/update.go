package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/go-fabric-cmd/internal/config"
	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
)

func (a *app) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download the latest Fabric install script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := install.Update(cmd.Context(), install.UpdateOptions{
				URL:    a.cfg.ScriptURL,
				Dest:   a.cfg.Script,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "install script saved to %s\n", path)
			return nil
		},
	}
	config.BindUpdateFlags(cmd.Flags(), a.cfg)
	return cmd
}
