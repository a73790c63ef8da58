package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/convert"
	"github.com/inkdoc/inkdoc/internal/document/snapshot"
)

func convertCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := cobra.Command{
		Use:   "convert",
		Short: "Convert between snapshots and external formats.",
		Long: `Convert between snapshots and external formats.

Reads a snapshot (or markdown with --from markdown) and writes it in
the format selected by --to: snapshot, markdown, html, or text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			var doc *document.Document
			switch from {
			case "snapshot":
				doc, err = loadSnapshot(data)
			case "markdown":
				doc, err = convert.Import(data, convert.FormatMarkdown, config.Default())
				err = errors.Wrap(err, "failed to import markdown")
			default:
				return errors.Errorf("unknown input format %q", from)
			}
			if err != nil {
				return err
			}

			var result []byte
			if to == "snapshot" {
				result, err = snapshot.Serialize(doc)
				err = errors.Wrap(err, "failed to serialize snapshot")
			} else {
				result, err = convert.Export(doc, convert.Format(to))
				err = errors.Wrapf(err, "failed to export as %q", to)
			}
			if err != nil {
				return err
			}

			if len(result) == 0 || result[len(result)-1] != '\n' {
				result = append(result, '\n')
			}
			_, err = cmd.OutOrStdout().Write(result)
			return errors.Wrap(err, "failed to write result")
		},
	}

	cmd.Flags().StringVar(&from, "from", "snapshot", "Input format: snapshot or markdown.")
	cmd.Flags().StringVar(&to, "to", "markdown", "Output format: snapshot, markdown, html, or text.")

	return &cmd
}
