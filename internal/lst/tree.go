package lst

import (
	"fmt"

	"mailtrace/internal/graph"
)

// Tree is an extracted event: an arborescence whose nodes and edges are the
// source graph's own values.
type Tree struct {
	*graph.Graph
	Root string
}

func newTree(root *graph.Node) *Tree {
	t := &Tree{Graph: graph.New(), Root: root.ID}
	t.AddNode(root)
	return t
}

// Parent returns id's parent, or "" for the root.
func (t *Tree) Parent(id string) string {
	if ps := t.Parents(id); len(ps) > 0 {
		return ps[0]
	}
	return ""
}

// NodeIDs returns node ids breadth first from the root.
func (t *Tree) NodeIDs() []string {
	ids := make([]string, 0, t.NumNodes())
	queue := []string{t.Root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ids = append(ids, id)
		queue = append(queue, t.Children(id)...)
	}
	return ids
}

func (t *Tree) Len() int { return t.NumNodes() }

// Reward sums node rewards.
func (t *Tree) Reward() int {
	total := 0
	for _, n := range t.Nodes() {
		total += n.Reward
	}
	return total
}

// Cost sums edge costs in their original units.
func (t *Tree) Cost() float64 {
	total := 0.0
	for _, e := range t.Edges() {
		total += e.Cost
	}
	return total
}

// CollapseDummies returns a copy without binarizer placeholders. Every real
// node hanging below a dummy is attached to its nearest real ancestor, keeping
// the cost of the edge it arrived by. t is left untouched.
func (t *Tree) CollapseDummies() (*Tree, error) {
	out := newTree(t.Node(t.Root))

	type item struct{ anchor, id string }
	var queue []item
	for _, c := range t.Children(t.Root) {
		queue = append(queue, item{t.Root, c})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		next := it.anchor
		if n := t.Node(it.id); !n.Dummy {
			e := t.Edge(t.Parent(it.id), it.id)
			if e.Source != it.anchor {
				e = &graph.Edge{Source: it.anchor, Target: it.id, Cost: e.Cost, Priced: e.Priced}
			}
			out.AddNode(n)
			if err := out.AddEdge(e); err != nil {
				return nil, fmt.Errorf("collapsing %s: %w", it.id, err)
			}
			next = it.id
		}
		for _, c := range t.Children(it.id) {
			queue = append(queue, item{next, c})
		}
	}
	return out, nil
}
