// Package events turns a meta-graph into candidate event trees: sample roots,
// cut each root's reachable window, binarize, extract, and pick a covering
// subset.
package events

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"mailtrace/internal/graph"
	"mailtrace/internal/logging"
	"mailtrace/internal/lst"
)

// Params configures candidate extraction.
type Params struct {
	Budget    float64
	Precision *int
	// Timespan limits each root's subgraph to descendants at most this many
	// seconds after the root. Nil keeps every descendant.
	Timespan    *float64
	DummyPrefix string
	Workers     int
	// KeepTrivial returns a root-only candidate for roots without edges
	// instead of skipping them.
	KeepTrivial bool
	Logger      *log.Logger
}

// Candidate is one extracted event.
type Candidate struct {
	Root   string
	Result *lst.Result
	// Tree is Result.Tree with binarizer placeholders removed.
	Tree *lst.Tree
}

// SampleRoots picks n distinct node ids at random. When n covers the graph
// every id is returned in graph order.
func SampleRoots(g *graph.Graph, n int, rng *rand.Rand) []string {
	ids := g.NodeIDs()
	if n >= len(ids) {
		return ids
	}
	if n <= 0 {
		return nil
	}
	roots := make([]string, 0, n)
	for _, i := range rng.Perm(len(ids))[:n] {
		roots = append(roots, ids[i])
	}
	return roots
}

// Candidates extracts one event per root. Roots whose window holds no edge are
// skipped unless p.KeepTrivial is set. The returned slice keeps root order.
func Candidates(ctx context.Context, g *graph.Graph, roots []string, p Params) ([]*Candidate, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	prefix := p.DummyPrefix
	if prefix == "" {
		prefix = "d_"
	}

	var (
		found []*Candidate
		err   error
	)
	if p.Timespan == nil {
		found, err = unbounded(ctx, g, roots, prefix, p)
	} else {
		found, err = windowed(ctx, g, roots, prefix, p)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Candidate, 0, len(found))
	for i, c := range found {
		if c == nil {
			logger.Debug("skipping root without edges", "root", roots[i])
			continue
		}
		logger.Debug("extracted candidate", "root", c.Root, "nodes", c.Tree.Len(), "reward", c.Result.Reward)
		out = append(out, c)
	}
	return out, nil
}

// unbounded binarizes g once and extracts every root from the shared copy.
func unbounded(ctx context.Context, g *graph.Graph, roots []string, prefix string, p Params) ([]*Candidate, error) {
	var live []string
	for _, root := range roots {
		if !g.Has(root) {
			return nil, fmt.Errorf("root %s: %w", root, graph.ErrUnknownNode)
		}
		if g.OutDegree(root) > 0 || p.KeepTrivial {
			live = append(live, root)
		}
	}
	bin, err := graph.Binarize(g, prefix)
	if err != nil {
		return nil, err
	}
	results, err := lst.ExtractAll(ctx, bin, live, lst.Options{Budget: p.Budget, Precision: p.Precision}, p.Workers)
	if err != nil {
		return nil, err
	}

	byRoot := make(map[string]*lst.Result, len(results))
	for i, res := range results {
		byRoot[live[i]] = res
	}
	found := make([]*Candidate, len(roots))
	for i, root := range roots {
		i, root := i, root
		res, ok := byRoot[root]
		if !ok {
			continue
		}
		tree, err := res.Tree.CollapseDummies()
		if err != nil {
			return nil, err
		}
		found[i] = &Candidate{Root: root, Result: res, Tree: tree}
	}
	return found, nil
}

// windowed cuts a separate subgraph per root, so each root is binarized on its own.
func windowed(ctx context.Context, g *graph.Graph, roots []string, prefix string, p Params) ([]*Candidate, error) {
	found := make([]*Candidate, len(roots))
	eg, ctx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		eg.SetLimit(p.Workers)
	}
	for i, root := range roots {
		i, root := i, root
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := candidate(g, root, prefix, *p.Timespan, p)
			if err != nil {
				return fmt.Errorf("root %s: %w", root, err)
			}
			found[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func candidate(g *graph.Graph, root, prefix string, span float64, p Params) (*Candidate, error) {
	sub, err := graph.WithinTimespan(g, root, span)
	if err != nil {
		return nil, err
	}
	if sub.NumEdges() == 0 && !p.KeepTrivial {
		return nil, nil
	}
	bin, err := graph.Binarize(sub, prefix)
	if err != nil {
		return nil, err
	}
	res, err := lst.Extract(bin, root, lst.Options{Budget: p.Budget, Precision: p.Precision})
	if err != nil {
		return nil, err
	}
	tree, err := res.Tree.CollapseDummies()
	if err != nil {
		return nil, err
	}
	return &Candidate{Root: root, Result: res, Tree: tree}, nil
}

// KBest greedily picks up to k candidates maximising the number of distinct
// interactions covered. Ties go to the higher reward, then the earlier
// candidate. Selection stops early once nothing new would be covered.
func KBest(cands []*Candidate, k int) []*Candidate {
	covered := make(map[string]bool)
	used := make([]bool, len(cands))
	var picked []*Candidate
	for len(picked) < k {
		best, bestGain := -1, 0
		for i, c := range cands {
			if used[i] {
				continue
			}
			gain := 0
			for _, id := range c.Tree.NodeIDs() {
				if !covered[id] {
					gain++
				}
			}
			if gain > bestGain || (gain == bestGain && gain > 0 && c.Result.Reward > cands[best].Result.Reward) {
				best, bestGain = i, gain
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, cands[best])
		for _, id := range cands[best].Tree.NodeIDs() {
			covered[id] = true
		}
	}
	return picked
}
