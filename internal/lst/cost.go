package lst

import "mailtrace/internal/graph"

// ChildCost names a child and the achieved cost of the subtree taken under it.
type ChildCost struct {
	Node string
	Cost int
}

// CostFunc combines the subtree costs chosen under node's children into the
// cost of the subtree rooted at node. It must be exact and non-decreasing in
// every child cost; Extract stops scanning larger child costs once the result
// exceeds the budget.
type CostFunc func(ctx *CostContext, node string, children []ChildCost) (int, error)

// CostContext is the read-only view a CostFunc gets of one extraction.
type CostContext struct {
	g         *graph.Graph
	costs     map[[2]string]int
	precision *int
	tables    map[string]table
}

// Graph returns the graph being extracted from.
func (c *CostContext) Graph() *graph.Graph { return c.g }

// EdgeCost returns the integer (rescaled) cost of u -> v.
func (c *CostContext) EdgeCost(u, v string) int { return c.costs[[2]string{u, v}] }

// Precision returns the decimal precision costs were rescaled with, if any.
func (c *CostContext) Precision() (int, bool) {
	if c.precision == nil {
		return 0, false
	}
	return *c.precision, true
}

// Covered reports the best reward recorded so far for a subtree under node
// with exactly the given cost. Only nodes already processed have entries.
func (c *CostContext) Covered(node string, cost int) (int, bool) {
	e, ok := c.tables[node][cost]
	if !ok {
		return 0, false
	}
	return e.reward, true
}

// SumCost is the default CostFunc: every child's subtree cost plus the edge
// leading to it.
func SumCost(ctx *CostContext, node string, children []ChildCost) (int, error) {
	total := 0
	for _, ch := range children {
		total += ch.Cost + ctx.EdgeCost(node, ch.Node)
	}
	return total, nil
}
