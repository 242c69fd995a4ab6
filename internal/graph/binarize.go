package graph

import (
	"fmt"
	"strconv"
)

// Binarize returns a copy of g in which every node has at most two children.
// A node with children c1..ck (k > 2) keeps c1 and gains a dummy node d1 with
// reward 0; d1 takes c2 and a further dummy, and so on until two children remain.
// Edges into dummies cost nothing; original edges keep their cost under the
// dummy that now owns them. Dummy ids are prefix followed by a counter.
func Binarize(g *Graph, prefix string) (*Graph, error) {
	b := g.Clone()
	seq := 0
	nextID := func() string {
		for {
			id := prefix + strconv.Itoa(seq)
			seq++
			if !b.Has(id) {
				return id
			}
		}
	}

	for _, id := range g.order {
		children := append([]string(nil), b.out[id]...)
		if len(children) <= 2 {
			continue
		}
		moved := make([]*Edge, 0, len(children)-1)
		for _, c := range children[1:] {
			moved = append(moved, b.Edge(id, c))
			b.RemoveEdge(id, c)
		}

		parent := id
		for len(moved) > 1 {
			d := &Node{ID: nextID(), Dummy: true, Timestamp: b.nodes[id].Timestamp}
			b.AddNode(d)
			if err := b.AddEdge(&Edge{Source: parent, Target: d.ID, Priced: true}); err != nil {
				return nil, fmt.Errorf("binarizing %s: %w", id, err)
			}
			e := moved[0]
			moved = moved[1:]
			if err := b.AddEdge(&Edge{Source: d.ID, Target: e.Target, Cost: e.Cost, Priced: e.Priced}); err != nil {
				return nil, fmt.Errorf("binarizing %s: %w", id, err)
			}
			parent = d.ID
		}
		e := moved[0]
		if err := b.AddEdge(&Edge{Source: parent, Target: e.Target, Cost: e.Cost, Priced: e.Priced}); err != nil {
			return nil, fmt.Errorf("binarizing %s: %w", id, err)
		}
	}
	return b, nil
}

// IsBinary reports whether every node has at most two children, returning the
// first offending node otherwise.
func IsBinary(g *Graph) (string, bool) {
	for _, id := range g.order {
		if len(g.out[id]) > 2 {
			return id, false
		}
	}
	return "", true
}
