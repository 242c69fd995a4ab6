package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mailtrace/internal/config"
	"mailtrace/internal/db"
	"mailtrace/internal/graph"
	"mailtrace/internal/logging"
)

const dbFileName = ".mailtrace.db"

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mailtrace",
	Short:         "Detect events in interaction corpora via budgeted tree extraction",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err = logging.New(os.Stderr, cfg.Log.Level)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to "+dbFileName+" database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// DiscoverDB finds the database path using priority: env > flag > config > walk-up.
// With create set, a missing database resolves to the flag/config path or to
// the current directory instead of failing.
func DiscoverDB(create bool) (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv(config.EnvPrefix + "DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil || create {
			return envPath, nil
		}
	}

	// 2. CLI flag, then config file
	for _, explicit := range []string{dbPath, cfg.Store.DBPath} {
		if explicit == "" {
			continue
		}
		if _, err := os.Stat(explicit); err == nil || create {
			return explicit, nil
		}
		return "", fmt.Errorf("database not found at %s", explicit)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if create {
		return dbFileName, nil
	}
	return "", fmt.Errorf("no %s found (set %sDB, use --db, or run from a directory containing %s)", dbFileName, config.EnvPrefix, dbFileName)
}

// OpenDatabase discovers and opens the database
func OpenDatabase(create bool) (*db.DB, error) {
	path, err := DiscoverDB(create)
	if err != nil {
		return nil, err
	}
	logger.Debug("opening database", "path", path)
	return db.OpenDB(path)
}

// ResolveRoot finds a meta-graph node by full ID, unique ID prefix, or text
// search over stored interactions.
func ResolveRoot(d *db.DB, g *graph.Graph, reference string) (string, error) {
	// 1. Exact ID match
	if g.Has(reference) {
		return reference, nil
	}

	// 2. ID prefix match. Decomposed instances share their message's prefix.
	var matches []string
	for _, id := range g.SortedNodeIDs() {
		if strings.HasPrefix(id, reference) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// fall through to FTS
	default:
		return "", ambiguous(reference, matches)
	}

	// 3. FTS search, keeping hits that made it into the graph
	hits, err := d.SearchInteractions(reference, 50)
	if err != nil {
		return "", err
	}
	seen := map[string]bool{}
	for _, h := range hits {
		for _, id := range instancesOf(g, h.MessageID) {
			if !seen[id] {
				seen[id] = true
				matches = append(matches, id)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("node not found: %s", reference)
	default:
		return "", ambiguous(reference, matches)
	}
}

// instancesOf returns the graph nodes decomposed from message id.
func instancesOf(g *graph.Graph, id string) []string {
	if g.Has(id) {
		return []string{id}
	}
	var out []string
	for _, n := range g.SortedNodeIDs() {
		if strings.HasPrefix(n, id+".") {
			out = append(out, n)
		}
	}
	return out
}

func ambiguous(reference string, matches []string) error {
	limit := 10
	if len(matches) < limit {
		limit = len(matches)
	}
	lines := make([]string, limit)
	for i := 0; i < limit; i++ {
		lines[i] = "  " + matches[i]
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full node ID instead.",
		reference, len(matches), strings.Join(lines, "\n"))
}
