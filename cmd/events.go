package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	eventsLimit int
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List stored events, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		evs, err := d.ListEvents(eventsLimit)
		if err != nil {
			return err
		}
		if eventsJSON {
			return writeJSON(os.Stdout, evs)
		}
		if len(evs) == 0 {
			fmt.Println("No events stored.")
			return nil
		}
		for _, e := range evs {
			label := ""
			if e.Label != nil {
				label = "  " + truncTitle(*e.Label, 30)
			}
			fmt.Printf("  %s  root=%s size=%d reward=%d cost=%.3f/%.3f  %s%s\n",
				truncID(e.ID), e.RootID, e.Size, e.Reward, e.Cost, e.Budget,
				humanize.Time(time.UnixMilli(e.CreatedAt)), label)
		}
		return nil
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show the members of a stored event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		ev, err := d.GetEvent(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		nodes, err := d.EventNodes(ev.ID)
		if err != nil {
			return err
		}
		if eventsJSON {
			return writeJSON(os.Stdout, map[string]any{"event": ev, "nodes": nodes})
		}

		fmt.Printf("\n  EVENT %s (root %s, reward %d, cost %.3f)\n", ev.ID, ev.RootID, ev.Reward, ev.Cost)
		fmt.Println("  ────────────────────────────────────────")
		for _, n := range nodes {
			parent, cost := "-", ""
			if n.ParentID != nil {
				parent = *n.ParentID
			}
			if n.EdgeCost != nil {
				cost = fmt.Sprintf("+%.3f", *n.EdgeCost)
			}
			fmt.Printf("  %3d  %-20s parent=%-20s message=%s %s\n", n.Position, n.NodeID, parent, n.MessageID, cost)
		}
		fmt.Println()
		return nil
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete a stored event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		ev, err := d.GetEvent(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := d.DeleteEvent(ev.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted event %s\n", ev.ID)
		return nil
	},
}

func init() {
	eventsCmd.PersistentFlags().BoolVar(&eventsJSON, "json", false, "Output as JSON")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events to list (0 for all)")
	eventsCmd.AddCommand(eventsShowCmd, eventsDeleteCmd)
	rootCmd.AddCommand(eventsCmd)
}
