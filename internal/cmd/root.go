package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inkdoc/inkdoc/internal/log"
)

var debug bool

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "inkdoc",
		Short:         "Work with block-document snapshots",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.Set(true)
			}
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.BoolVar(&debug, "debug", false, "Enable debug logging.")

	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(convertCmd())
	cmd.AddCommand(inspectCmd())

	return &cmd
}
