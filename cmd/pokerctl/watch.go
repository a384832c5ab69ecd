package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/planning-poker-backend/internal/client"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

var (
	watchServer string
	watchRoom   string
	watchName   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a room and print what happens",
	Long: `Connects to a room and prints every change. With --name the watcher
joins as a participant, otherwise it only observes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchServer, "server", "http://localhost:4000", "server base URL")
	watchCmd.Flags().StringVar(&watchRoom, "room", "", "room code (default room when empty)")
	watchCmd.Flags().StringVar(&watchName, "name", "", "join under this display name")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	u, err := client.RoomURL(watchServer, watchRoom)
	if err != nil {
		return err
	}
	conn, err := client.Dial(ctx, u, watchName)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", u, err)
	}
	defer conn.Close()

	if watchName != "" {
		if err := conn.Send(ctx, client.Join(watchName)); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	return conn.Run(ctx, func(m types.RawServerMessage, v *client.View) {
		printEvent(out, m, v)
	})
}

func printEvent(w io.Writer, m types.RawServerMessage, v *client.View) {
	switch session.EventType(m.Type) {
	case session.EvtState, session.EvtParticipants:
		names := make([]string, len(v.Participants))
		for i, p := range v.Participants {
			names[i] = p.Name
		}
		mod := "-"
		if v.Moderator != nil {
			mod = *v.Moderator
		}
		fmt.Fprintf(w, "participants: %s (moderator %s)\n", strings.Join(names, ", "), mod)
	case session.EvtVoteUpdate:
		fmt.Fprintf(w, "votes: %d of %d\n", v.VoteCount, len(v.Participants))
	case session.EvtReveal:
		fmt.Fprintln(w, "revealed:")
		for _, l := range v.ResultLines() {
			fmt.Fprintf(w, "  %s: %s\n", l.Name, l.Point)
		}
		if avg, ok := v.Average(); ok {
			fmt.Fprintf(w, "  average %.1f\n", avg)
		}
	case session.EvtFinal:
		line := fmt.Sprintf("final: %s", *v.FinalPoint)
		if v.Summary != nil {
			line += " for " + *v.Summary
		}
		fmt.Fprintln(w, line)
	case session.EvtReset:
		fmt.Fprintln(w, "new round")
	case session.EvtItemDetails:
		if v.Summary != nil {
			fmt.Fprintf(w, "item: %s\n", *v.Summary)
		}
		if ac := v.RenderAcceptanceCriteria(client.ModeText); ac != "" {
			fmt.Fprintf(w, "%s\n", ac)
		}
	case types.TypeError:
		fmt.Fprintf(w, "server error: %s\n", m.Error)
	}
}
