package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mailtrace/internal/interactions"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Import interaction records (JSON array or JSON lines) into the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(true)
		if err != nil {
			return err
		}
		defer d.Close()

		total := 0
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			raws, err := interactions.ReadJSON(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			n, err := d.InsertInteractions(raws)
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			logger.Info("imported", "file", path, "records", n)
			total += n
		}

		count, err := d.CountInteractions()
		if err != nil {
			return err
		}
		fmt.Printf("Imported %s records (%s stored in %s)\n", humanize.Comma(int64(total)), humanize.Comma(int64(count)), d.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
