package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/planning-poker-backend/internal/markup"
)

var markupHTML bool

var markupCmd = &cobra.Command{
	Use:   "markup [FILE]",
	Short: "Convert Jira wiki markup to indented text or HTML",
	Long:  `Reads markup from FILE, or from stdin when no file is given, and prints the indented text form (or HTML with --html).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMarkup,
}

func init() {
	markupCmd.Flags().BoolVar(&markupHTML, "html", false, "print HTML instead of indented text")
	rootCmd.AddCommand(markupCmd)
}

func runMarkup(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading markup: %w", err)
	}

	out := markup.ToIndentedText(string(src))
	if markupHTML {
		out = markup.ToHTML(string(src))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
