package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/planning-poker-backend/internal/config"
	"github.com/DoyleJ11/planning-poker-backend/internal/markup"
	"github.com/DoyleJ11/planning-poker-backend/internal/tracker"
)

var itemEnvFile string

var itemCmd = &cobra.Command{
	Use:   "item KEY",
	Short: "Show a tracker item the way a room would see it",
	Long:  `Uses the JIRA_* settings (environment or --env file) to fetch an item's summary, acceptance criteria and description.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runItem,
}

func init() {
	itemCmd.Flags().StringVar(&itemEnvFile, "env", ".env", "env file to read before the environment")
	rootCmd.AddCommand(itemCmd)
}

func runItem(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(itemEnvFile)
	if err != nil {
		return err
	}
	if !cfg.Jira.Enabled() {
		return errors.New("JIRA_URL is not set")
	}
	client, err := tracker.NewClient(tracker.Config{
		BaseURL:                 cfg.Jira.URL,
		Username:                cfg.Jira.Username,
		Token:                   cfg.Jira.Password,
		StoryPointField:         cfg.Jira.StoryPointField,
		DescriptionField:        cfg.Jira.DescriptionField,
		AcceptanceCriteriaField: cfg.Jira.AcceptanceCriteriaField,
		Timeout:                 cfg.Jira.Timeout,
		Retries:                 cfg.Jira.Retries,
		RetryWait:               cfg.Jira.RetryWait,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	key := args[0]
	summary := client.Summary(ctx, key)
	if summary == nil {
		return fmt.Errorf("could not read %s", key)
	}
	details, err := client.Details(ctx, key)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s\n", key, *summary)
	if details.AcceptanceCriteria != nil {
		fmt.Fprintf(w, "\nAcceptance criteria:\n%s\n", markup.ToIndentedText(*details.AcceptanceCriteria))
	}
	if details.Description != nil {
		fmt.Fprintf(w, "\nDescription:\n%s\n", markup.ToIndentedText(*details.Description))
	}
	return nil
}
