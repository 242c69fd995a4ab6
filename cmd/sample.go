package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"mailtrace/internal/events"
)

var (
	sampleN       int
	sampleK       int
	sampleWorkers int
	sampleSeed    int64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Extract events from randomly sampled roots and keep the k that cover the most interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		g, err := loadGraph(d)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		p, err := extractParams(cmd)
		if err != nil {
			return err
		}
		n, k, seed := cfg.Extract.SampleSize, cfg.Extract.KBest, cfg.Extract.Seed
		if cmd.Flags().Changed("n") {
			n = sampleN
		}
		if cmd.Flags().Changed("k") {
			k = sampleK
		}
		if cmd.Flags().Changed("seed") {
			seed = sampleSeed
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		roots := events.SampleRoots(g, n, rand.New(rand.NewSource(seed)))
		logger.Info("sampled roots", "count", len(roots), "seed", seed)
		cands, err := events.Candidates(ctx, g, roots, p)
		if err != nil {
			return err
		}
		best := events.KBest(cands, k)
		logger.Info("selected events", "candidates", len(cands), "kept", len(best))

		if extractSave {
			for _, c := range best {
				id, err := d.SaveEvent(c.Tree, p.Budget, extractLabel)
				if err != nil {
					return err
				}
				logger.Info("saved event", "id", id, "root", c.Root)
			}
		}

		if extractJSON {
			out := make([]eventJSON, len(best))
			for i, c := range best {
				out[i] = toJSON(c)
			}
			return writeJSON(os.Stdout, out)
		}
		for _, c := range best {
			printCandidate(os.Stdout, c)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	sampleCmd.Flags().IntVar(&sampleN, "n", 0, "Number of roots to sample (default from config)")
	sampleCmd.Flags().IntVar(&sampleK, "k", 0, "Number of events to keep (default from config)")
	sampleCmd.Flags().IntVar(&sampleWorkers, "workers", 0, "Parallel extractions (default from config)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "Sampling seed (default from config)")
	addExtractFlags(sampleCmd)
	rootCmd.AddCommand(sampleCmd)
}
