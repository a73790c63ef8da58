package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const previewLimit = 48

func inspectCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "inspect",
		Short: "List the blocks stored in a snapshot.",
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

			cyan := color.New(color.FgCyan).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			faint := color.New(color.Faint).SprintFunc()

			out := cmd.OutOrStdout()
			for i, b := range doc.Blocks() {
				preview := ""
				if text, ok := doc.Config().ProjectText(b.Type(), b.Raw()); ok {
					preview = truncate(text, previewLimit)
				}
				_, err := fmt.Fprintf(out, "%s  %s  %s  %s\n",
					cyan(fmt.Sprintf("%3d", i)),
					faint(b.ID()),
					yellow(fmt.Sprintf("%-8s", b.Type())),
					preview,
				)
				if err != nil {
					return errors.Wrap(err, "failed to write result")
				}
			}
			return nil
		},
	}
	return &cmd
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
