// Package lst extracts budgeted maximum-reward subtrees from binarized DAGs.
//
// Every node keeps a table keyed by achieved integer cost. An entry holds the
// best reward reachable at exactly that cost, the set of nodes it covers and
// the child choices that produced it. Tables are filled leaves first; a node
// with two children may only join a left and a right subtree whose node sets
// are disjoint, so no interaction is counted twice within one event tree.
package lst

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"mailtrace/internal/graph"
)

var (
	ErrNotBinarized   = errors.New("node has more than two children")
	ErrUnknownRoot    = errors.New("root is not in the graph")
	ErrNegativeBudget = errors.New("budget must be a non-negative number")
	ErrUnpricedEdge   = errors.New("edge has no cost")
	ErrFractionalCost = errors.New("fractional edge cost requires a precision")
	ErrCostRange      = errors.New("rescaled cost does not fit in an int")
	ErrInvariant      = errors.New("extraction invariant violated")
)

// Options configures one extraction.
type Options struct {
	// Budget bounds the total edge cost of the extracted tree.
	Budget float64
	// Precision, when set, rescales the budget and every edge cost by
	// 10^Precision and rounds them to integers. Without it edge costs must
	// already be integral and the budget is truncated.
	Precision *int
	// Round is used for rescaling. Defaults to math.Round.
	Round func(float64) float64
	// Cost combines child subtree costs. Defaults to SumCost.
	Cost CostFunc
}

// Result is one extracted event tree. Cost and Budget are in rescaled integer
// units; divide by Scale for the original units.
type Result struct {
	Tree   *Tree
	Reward int
	Cost   int
	Budget int
	Scale  int
}

type entry struct {
	reward int
	set    *bitset.BitSet
	bp     []ChildCost
}

type table map[int]*entry

func (t table) costs() []int {
	cs := make([]int, 0, len(t))
	for c := range t {
		cs = append(cs, c)
	}
	sort.Ints(cs)
	return cs
}

// offer records e at cost unless an entry with at least the same reward is
// already there.
func (t table) offer(cost int, e *entry) {
	if cur, ok := t[cost]; ok && e.reward <= cur.reward {
		return
	}
	t[cost] = e
}

// Extract finds the subtree rooted at root with the largest total reward whose
// total edge cost stays within the budget. Among equally rewarding subtrees the
// cheapest one wins. The result references g's own node and edge values; g is
// never modified.
func Extract(g *graph.Graph, root string, opts Options) (*Result, error) {
	if !g.Has(root) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	if opts.Budget < 0 || math.IsNaN(opts.Budget) || math.IsInf(opts.Budget, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNegativeBudget, opts.Budget)
	}

	nodes, err := region(g, root)
	if err != nil {
		return nil, err
	}
	if _, ok := graph.IsBinary(g); !ok {
		for _, id := range nodes {
			if len(g.Children(id)) > 2 {
				return nil, fmt.Errorf("%w: %s has %d", ErrNotBinarized, id, len(g.Children(id)))
			}
		}
	}

	scale, budget, costs, err := rescale(g, nodes, opts)
	if err != nil {
		return nil, err
	}
	combine := opts.Cost
	if combine == nil {
		combine = SumCost
	}

	index := make(map[string]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}
	ctx := &CostContext{
		g:         g,
		costs:     costs,
		precision: opts.Precision,
		tables:    make(map[string]table, len(nodes)),
	}
	empty := bitset.New(uint(len(nodes)))

	for i := len(nodes) - 1; i >= 0; i-- {
		id := nodes[i]
		t, err := fill(ctx, combine, id, index, empty, budget)
		if err != nil {
			return nil, err
		}
		ctx.tables[id] = t
	}

	rt := ctx.tables[root]
	best, ok := bestCost(rt)
	if !ok {
		return nil, fmt.Errorf("%w: no entry for root %s", ErrInvariant, root)
	}
	tree, err := reconstruct(g, root, rt[best], ctx.tables)
	if err != nil {
		return nil, err
	}
	return &Result{
		Tree:   tree,
		Reward: rt[best].reward,
		Cost:   best,
		Budget: budget,
		Scale:  scale,
	}, nil
}

// region returns root and its descendants in topological order. Root comes
// first since it reaches every other member.
func region(g *graph.Graph, root string) ([]string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	keep := g.Descendants(root)
	keep[root] = true
	nodes := make([]string, 0, len(keep))
	for _, id := range order {
		if keep[id] {
			nodes = append(nodes, id)
		}
	}
	return nodes, nil
}

// maxInt is math.MaxInt as a float64; any float at or above it overflows int.
const maxInt = float64(math.MaxInt)

// rescale converts the budget and every edge cost in the region to integers.
// The region's total cost must fit in an int so that no combined subtree cost
// can overflow. A budget beyond that range is clamped to math.MaxInt.
func rescale(g *graph.Graph, nodes []string, opts Options) (int, int, map[[2]string]int, error) {
	round := opts.Round
	if round == nil {
		round = math.Round
	}
	scale := 1
	if opts.Precision != nil {
		if *opts.Precision < 0 {
			return 0, 0, nil, fmt.Errorf("precision must be non-negative, got %d", *opts.Precision)
		}
		pow := math.Pow10(*opts.Precision)
		if pow >= maxInt {
			return 0, 0, nil, fmt.Errorf("%w: precision %d", ErrCostRange, *opts.Precision)
		}
		scale = int(pow)
	}

	scaled := math.Floor(opts.Budget)
	if opts.Precision != nil {
		scaled = round(opts.Budget * float64(scale))
	}
	var budget int
	switch {
	case math.IsNaN(scaled) || scaled < 0:
		return 0, 0, nil, fmt.Errorf("%w: budget %v rescales to %v", ErrNegativeBudget, opts.Budget, scaled)
	case scaled >= maxInt:
		budget = math.MaxInt
	default:
		budget = int(scaled)
	}

	costs := make(map[[2]string]int)
	total := 0
	for _, u := range nodes {
		for _, v := range g.Children(u) {
			e := g.Edge(u, v)
			switch {
			case !e.Priced:
				return 0, 0, nil, fmt.Errorf("%w: %s -> %s", ErrUnpricedEdge, u, v)
			case e.Cost < 0 || math.IsNaN(e.Cost):
				return 0, 0, nil, fmt.Errorf("%w: %s -> %s costs %v", graph.ErrNegativeCost, u, v, e.Cost)
			}
			c := e.Cost
			if opts.Precision != nil {
				c = round(c * float64(scale))
			} else if c != math.Trunc(c) {
				return 0, 0, nil, fmt.Errorf("%w: %s -> %s costs %v", ErrFractionalCost, u, v, e.Cost)
			}
			if math.IsNaN(c) || c < 0 || c >= maxInt || int(c) > math.MaxInt-total {
				return 0, 0, nil, fmt.Errorf("%w: %s -> %s costs %v", ErrCostRange, u, v, e.Cost)
			}
			total += int(c)
			costs[[2]string{u, v}] = int(c)
		}
	}
	return scale, budget, costs, nil
}

// fill builds the table for id from its children's tables. Candidates are
// offered in a fixed order (single-child extensions per child in child order,
// then joint extensions) and only a strictly better reward replaces an entry,
// so equal inputs always yield equal tables.
func fill(ctx *CostContext, combine CostFunc, id string, index map[string]int, empty *bitset.BitSet, budget int) (table, error) {
	n := ctx.g.Node(id)
	self := index[id]
	t := table{0: {reward: n.Reward, set: empty.Clone().Set(uint(self))}}

	kids := ctx.g.Children(id)
	for _, c := range kids {
		ct := ctx.tables[c]
		for _, i := range ct.costs() {
			bp := []ChildCost{{Node: c, Cost: i}}
			cost, err := combine(ctx, id, bp)
			if err != nil {
				return nil, fmt.Errorf("combining cost at %s: %w", id, err)
			}
			if cost > budget {
				break
			}
			ce := ct[i]
			t.offer(cost, &entry{reward: ce.reward + n.Reward, set: ce.set.Clone().Set(uint(self)), bp: bp})
		}
	}
	if len(kids) < 2 {
		return t, nil
	}

	l, r := ctx.tables[kids[0]], ctx.tables[kids[1]]
	lc, rc := l.costs(), r.costs()
	for a := len(lc) - 1; a >= 0; a-- {
		le := l[lc[a]]
		for _, j := range rc {
			bp := []ChildCost{{Node: kids[0], Cost: lc[a]}, {Node: kids[1], Cost: j}}
			cost, err := combine(ctx, id, bp)
			if err != nil {
				return nil, fmt.Errorf("combining cost at %s: %w", id, err)
			}
			if cost > budget {
				break
			}
			re := r[j]
			reward := le.reward + re.reward + n.Reward
			if cur, ok := t[cost]; ok && reward <= cur.reward {
				continue
			}
			if le.set.IntersectionCardinality(re.set) > 0 {
				continue
			}
			t[cost] = &entry{reward: reward, set: le.set.Union(re.set).Set(uint(self)), bp: bp}
		}
	}
	return t, nil
}

// bestCost returns the smallest cost holding the maximum reward.
func bestCost(t table) (int, bool) {
	best, found := 0, false
	for _, c := range t.costs() {
		if !found || t[c].reward > t[best].reward {
			best, found = c, true
		}
	}
	return best, found
}

// reconstruct walks backpointers breadth first from the root entry.
func reconstruct(g *graph.Graph, root string, top *entry, tables map[string]table) (*Tree, error) {
	tree := newTree(g.Node(root))

	type item struct {
		parent string
		ChildCost
	}
	queue := make([]item, 0, len(top.bp))
	for _, bp := range top.bp {
		queue = append(queue, item{root, bp})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		e, ok := tables[it.Node][it.Cost]
		if !ok {
			return nil, fmt.Errorf("%w: missing entry %s@%d", ErrInvariant, it.Node, it.Cost)
		}
		if tree.Has(it.Node) {
			return nil, fmt.Errorf("%w: %s reached twice", ErrInvariant, it.Node)
		}
		tree.AddNode(g.Node(it.Node))
		if err := tree.AddEdge(g.Edge(it.parent, it.Node)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		for _, bp := range e.bp {
			queue = append(queue, item{it.Node, bp})
		}
	}
	return tree, nil
}
