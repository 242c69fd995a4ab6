package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mailtrace/internal/graph"
)

var (
	statsJSON bool
	statsRoot string
	statsTop  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the meta-graph: size, components, degrees, time range, edge costs",
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

		if statsRoot != "" {
			root, err := ResolveRoot(d, g, statsRoot)
			if err != nil {
				return err
			}
			if g, err = graph.RootedSubgraph(g, root, func(*graph.Node) bool { return true }); err != nil {
				return err
			}
		}

		// Statistics read structure and timestamps only.
		g = graph.Compact(g)
		stats := graph.ComputeStats(g)
		bridges := graph.ComputeBridges(g)

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*graph.Stats
				Bridges *graph.BridgeReport `json:"bridges"`
			}{stats, bridges})
		}

		printStats(stats)
		printBridges(bridges, statsTop)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsRoot, "root", "", "Scope statistics to descendants of this node")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of articulation points to list")
	rootCmd.AddCommand(statsCmd)
}

func printStats(s *graph.Stats) {
	fmt.Println("\n  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Nodes: %s  Edges: %s  Components: %s\n",
		humanize.Comma(int64(s.TotalNodes)), humanize.Comma(int64(s.TotalEdges)), humanize.Comma(int64(s.NumComponents)))
	fmt.Printf("  Largest component: %d  Smallest: %d\n", s.LargestComponent, s.SmallestComponent)
	if s.Singletons > 0 {
		fmt.Printf("  Singletons: %d interactions without a relevant neighbour\n", s.Singletons)
	}
	if s.DummyNodes > 0 {
		fmt.Printf("  Placeholders: %d\n", s.DummyNodes)
	}
	fmt.Printf("  In-degree:  min=%d max=%d avg=%.2f median=%.1f\n", s.InDegree.Min, s.InDegree.Max, s.InDegree.Average, s.InDegree.Median)
	fmt.Printf("  Out-degree: min=%d max=%d avg=%.2f median=%.1f\n", s.OutDegree.Min, s.OutDegree.Max, s.OutDegree.Average, s.OutDegree.Median)

	// Degree distribution
	fmt.Println("\n  Degree distribution:")
	for _, b := range s.DegreeHistogram {
		if b.Count > 0 {
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, logBar(b.Count))
		}
	}

	if s.StartTime != nil && s.EndTime != nil {
		fmt.Println("\n  TIME RANGE")
		fmt.Println("  ────────────────────────────────────────")
		fmt.Printf("  %s → %s (%s)\n",
			s.StartTime.Format("2006-01-02 15:04"), s.EndTime.Format("2006-01-02 15:04"),
			strings.TrimSpace(humanize.RelTime(*s.StartTime, *s.EndTime, "", "")))
	}

	if s.PricedEdges > 0 {
		fmt.Println("\n  EDGE COSTS")
		fmt.Println("  ────────────────────────────────────────")
		fmt.Printf("  Priced edges: %s of %s\n", humanize.Comma(int64(s.PricedEdges)), humanize.Comma(int64(s.TotalEdges)))
		for _, b := range s.CostHistogram {
			if b.Count > 0 {
				fmt.Printf("    [%.2f, %.2f): %5d  %s\n", b.Low, b.High, b.Count, logBar(b.Count))
			}
		}
	}

	fmt.Println()
}

func printBridges(r *graph.BridgeReport, top int) {
	if r.APCount == 0 && r.BridgeCount == 0 {
		return
	}
	fmt.Println("  STRUCTURAL FRAGILITY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Articulation points: %d  Bridges: %d\n", r.APCount, r.BridgeCount)
	for i, ap := range r.ArticulationPoints {
		if i >= top {
			fmt.Printf("    ... and %d more\n", r.APCount-top)
			break
		}
		fmt.Printf("    %-24s %-20s degree=%d\n", truncTitle(ap.ID, 24), truncTitle(ap.Sender, 20), ap.Degree)
	}
	fmt.Println()
}

func logBar(count int) string {
	barWidth := int(math.Log2(float64(count))) + 2
	if barWidth < 1 {
		barWidth = 1
	}
	return strings.Repeat("=", barWidth)
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
