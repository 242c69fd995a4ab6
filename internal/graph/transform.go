package graph

// Filter returns a new graph containing only the nodes accepted by keep and the
// edges between them. The source graph is not modified.
func Filter(g *Graph, keep func(*Node) bool) *Graph {
	c := g.Clone()
	for _, id := range g.order {
		if !keep(g.nodes[id]) {
			c.RemoveNode(id)
		}
	}
	return c
}

// RemoveIsolated returns a copy of g without nodes of total degree 0.
func RemoveIsolated(g *Graph) *Graph {
	return Filter(g, func(n *Node) bool { return g.Degree(n.ID) > 0 })
}

// RootedSubgraph keeps root and those of its descendants accepted by keep.
// The root itself is always kept when present.
func RootedSubgraph(g *Graph, root string, keep func(*Node) bool) (*Graph, error) {
	if !g.Has(root) {
		return nil, ErrUnknownNode
	}
	desc := g.Descendants(root)
	return Filter(g, func(n *Node) bool {
		if n.ID == root {
			return true
		}
		return desc[n.ID] && keep(n)
	}), nil
}

// WithinTimespan keeps the descendants of root no later than secs after it.
func WithinTimespan(g *Graph, root string, secs float64) (*Graph, error) {
	r := g.Node(root)
	if r == nil {
		return nil, ErrUnknownNode
	}
	return RootedSubgraph(g, root, func(n *Node) bool {
		return n.Timestamp-r.Timestamp <= secs
	})
}

// PrepruneEdges drops every edge whose target is more than secs after its source.
func PrepruneEdges(g *Graph, secs float64) *Graph {
	c := g.Clone()
	for _, e := range g.Edges() {
		if g.nodes[e.Target].Timestamp-g.nodes[e.Source].Timestamp > secs {
			c.RemoveEdge(e.Source, e.Target)
		}
	}
	return c
}

// Compact returns a copy with payloads and topic vectors stripped, keeping only
// the fields the extractor reads.
func Compact(g *Graph) *Graph {
	c := g.Clone()
	for _, n := range c.nodes {
		n.Payload = nil
		n.Topics = nil
	}
	return c
}
