package metagraph

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"mailtrace/internal/graph"
	"mailtrace/internal/interactions"
	"mailtrace/internal/logging"
)

// ErrContract reports a constructor whose output breaks the meta-graph contract.
var ErrContract = errors.New("meta-graph constructor broke its contract")

// Constructor decides which pairs of interactions are linked. cols is sorted
// ascending by timestamp; window, when non-nil, bounds how far ahead (in
// seconds) a link may reach. The result must hold exactly one node per id and
// only forward-in-time edges.
type Constructor interface {
	Build(cols interactions.Columns, window *float64) (*graph.Graph, error)
}

// Builder turns raw records into a meta-graph.
type Builder struct {
	Constructor      Constructor
	Logger           *log.Logger
	Decompose        bool
	RemoveSingletons bool
	// Window is the look-ahead in seconds; nil means unbounded.
	Window *float64
}

// Build cleans, optionally decomposes and sorts raws, links them with the
// constructor and attaches interaction attributes to every node. Each node's
// Payload is its *interactions.Interaction.
func (b *Builder) Build(raws []interactions.RawRecord) (*graph.Graph, error) {
	logger := b.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ints := interactions.Clean(logger, raws)
	if b.Decompose {
		ints = interactions.Decompose(ints)
	}
	sorted, cols := interactions.Unzip(dedupe(logger, ints))

	g, err := b.Constructor.Build(cols, b.Window)
	if err != nil {
		return nil, fmt.Errorf("constructing meta-graph: %w", err)
	}
	if err := checkContract(g, cols); err != nil {
		return nil, err
	}

	for i := range sorted {
		in := &sorted[i]
		n := g.Node(in.MessageID)
		n.Reward = 1
		n.Timestamp = in.Timestamp
		n.Sender = in.SenderID
		n.Recipient = ""
		if len(in.RecipientIDs) > 0 {
			n.Recipient = in.RecipientIDs[0]
		}
		n.Topics = in.Topics
		n.Payload = in
	}

	logger.Debug("meta-graph built", "interactions", len(sorted), "nodes", g.NumNodes(), "edges", g.NumEdges())

	if b.RemoveSingletons {
		before := g.NumNodes()
		g = graph.RemoveIsolated(g)
		logger.Debug("removed singletons", "count", before-g.NumNodes())
	}
	return g, nil
}

// dedupe keeps the first interaction for every id.
func dedupe(logger *log.Logger, ints []interactions.Interaction) []interactions.Interaction {
	seen := make(map[string]bool, len(ints))
	out := ints[:0:0]
	for _, in := range ints {
		if seen[in.MessageID] {
			logger.Warn("dropping duplicate interaction", "message_id", in.MessageID)
			continue
		}
		seen[in.MessageID] = true
		out = append(out, in)
	}
	return out
}

func checkContract(g *graph.Graph, cols interactions.Columns) error {
	if g.NumNodes() != cols.Len() {
		return fmt.Errorf("%w: %d nodes for %d interactions", ErrContract, g.NumNodes(), cols.Len())
	}
	ts := make(map[string]float64, cols.Len())
	for i, id := range cols.IDs {
		if !g.Has(id) {
			return fmt.Errorf("%w: missing node %s", ErrContract, id)
		}
		ts[id] = cols.Timestamps[i]
	}
	for _, e := range g.Edges() {
		if ts[e.Target] <= ts[e.Source] {
			return fmt.Errorf("%w: edge %s -> %s does not go forward in time", ErrContract, e.Source, e.Target)
		}
	}
	return nil
}
