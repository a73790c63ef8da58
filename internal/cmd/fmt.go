package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/inkdoc/inkdoc/internal/document/snapshot"
)

func fmtCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "fmt",
		Short: "Normalize a snapshot into canonical form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			doc, err := loadSnapshot(data)
			if err != nil {
				return err
			}

			result, err := snapshot.Serialize(doc)
			if err != nil {
				return errors.Wrap(err, "failed to serialize snapshot")
			}

			_, err = cmd.OutOrStdout().Write(append(result, '\n'))
			return errors.Wrap(err, "failed to write result")
		},
	}
	return &cmd
}
