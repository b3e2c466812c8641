package cmd

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"flowstudio/internal/extract"
)

var flagStats bool

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Print the text the server would store for a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			pages, err := extract.Pages(data)
			if err != nil {
				return err
			}

			if flagStats {
				cmd.Println(renderPageStats(pages))
				return nil
			}
			for _, page := range pages {
				cmd.Print(page)
			}
			cmd.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagStats, "stats", false, "Print characters per page instead of the text")
	return cmd
}

func renderPageStats(pages []string) string {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{"PAGE", "CHARACTERS", "BYTES"})

	var chars, bytes int
	for i, page := range pages {
		n := utf8.RuneCountInString(page)
		chars += n
		bytes += len(page)
		tw.AppendRow(table.Row{i + 1, n, len(page)})
	}
	tw.AppendFooter(table.Row{"TOTAL", chars, bytes})
	return tw.Render()
}
