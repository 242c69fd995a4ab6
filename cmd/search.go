package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over stored subjects and bodies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		hits, err := d.SearchInteractions(args[0], searchLimit)
		if err != nil {
			return err
		}
		if searchJSON {
			return writeJSON(os.Stdout, hits)
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("  %-20s %-20s %s\n", h.MessageID, h.SenderID, truncTitle(h.Subject, 50))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of matches")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(searchCmd)
}
