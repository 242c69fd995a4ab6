package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mailtrace/internal/events"
)

var (
	extractBudget    float64
	extractPrecision int
	extractTimespan  string
	extractJSON      bool
	extractSave      bool
	extractLabel     string
)

var extractCmd = &cobra.Command{
	Use:   "extract <root>...",
	Short: "Extract the best event tree under a budget from one or more roots",
	Long: "Resolves each root by node ID, ID prefix, or text search, then extracts the maximum-reward tree whose total edge cost fits the budget.\n" +
		"A root with no follow-up within the timespan yields a tree holding only the root.",
	Args: cobra.MinimumNArgs(1),
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

		roots := make([]string, len(args))
		for i, ref := range args {
			if roots[i], err = ResolveRoot(d, g, ref); err != nil {
				return err
			}
		}

		p, err := extractParams(cmd)
		if err != nil {
			return err
		}
		p.KeepTrivial = true
		cands, err := events.Candidates(context.Background(), g, roots, p)
		if err != nil {
			return err
		}

		if extractSave {
			for _, c := range cands {
				id, err := d.SaveEvent(c.Tree, p.Budget, extractLabel)
				if err != nil {
					return err
				}
				logger.Info("saved event", "id", id, "root", c.Root)
			}
		}

		if extractJSON {
			out := make([]eventJSON, len(cands))
			for i, c := range cands {
				out[i] = toJSON(c)
			}
			return writeJSON(os.Stdout, out)
		}
		for _, c := range cands {
			printCandidate(os.Stdout, c)
		}
		fmt.Println()
		return nil
	},
}

// extractParams merges config defaults with any flags the user set.
func extractParams(cmd *cobra.Command) (events.Params, error) {
	p := events.Params{
		Budget:      cfg.Extract.Budget,
		Precision:   cfg.Extract.Precision,
		DummyPrefix: cfg.Graph.DummyPrefix,
		Workers:     cfg.Extract.Workers,
		Logger:      logger,
	}
	timespan := cfg.Extract.Timespan
	flags := cmd.Flags()
	if flags.Changed("budget") {
		p.Budget = extractBudget
	}
	if flags.Changed("precision") {
		prec := extractPrecision
		p.Precision = &prec
	}
	if flags.Changed("timespan") {
		timespan = extractTimespan
	}
	if flags.Changed("workers") {
		p.Workers = sampleWorkers
	}
	span, err := optionalSeconds(timespan)
	if err != nil {
		return p, fmt.Errorf("timespan: %w", err)
	}
	p.Timespan = span
	return p, nil
}

func addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&extractBudget, "budget", 0, "Maximum total edge cost (default from config)")
	cmd.Flags().IntVar(&extractPrecision, "precision", 0, "Decimal places kept when rescaling costs (default from config)")
	cmd.Flags().StringVar(&extractTimespan, "timespan", "", `Only follow interactions within this span of the root, e.g. "7-days"; empty for no limit`)
	cmd.Flags().BoolVar(&extractJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&extractSave, "save", false, "Store extracted events in the database")
	cmd.Flags().StringVar(&extractLabel, "label", "", "Label for saved events")
}

func init() {
	addExtractFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}
