package cli

import (
	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/apor-sync/internal/config"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

// NewRootCommand creates the apor-sync command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apor-sync",
		Short:         "Reconcile the CFPB APOR weekly rate tables with the local record store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewSyncCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewRunsCommand())
	return cmd
}
