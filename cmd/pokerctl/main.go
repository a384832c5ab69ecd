package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pokerctl",
	Short: "Companion tool for the planning poker server",
	Long: `pokerctl follows a planning poker room from the terminal, converts
Jira wiki markup, and looks up tracker items with the server's configuration.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
