package graph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrDuplicateEdge = errors.New("duplicate edge")
	ErrCycle         = errors.New("graph contains a cycle")
)

// Node is one decomposed interaction instance (or a binarizer placeholder).
type Node struct {
	ID        string
	Reward    int
	Timestamp float64
	Sender    string
	Recipient string
	Topics    []float64
	Dummy     bool

	// Payload carries pass-through fields the graph never interprets.
	Payload any
}

// Edge is a directed relevance link. Cost is meaningful only when Priced is set.
type Edge struct {
	Source string
	Target string
	Cost   float64
	Priced bool
}

type edgeKey struct{ u, v string }

// Graph is a directed graph with insertion-ordered nodes and children so that
// every traversal is deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
	out   map[string][]string
	in    map[string][]string
	edges map[edgeKey]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		edges: make(map[edgeKey]*Edge),
	}
}

// AddNode inserts n, replacing the attributes of an existing node with the same ID
// while keeping its position and edges.
func (g *Graph) AddNode(n *Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
		g.out[n.ID] = nil
		g.in[n.ID] = nil
	}
	g.nodes[n.ID] = n
}

// AddEdge links u -> v. Both endpoints must exist.
func (g *Graph) AddEdge(e *Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.Source)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.Target)
	}
	k := edgeKey{e.Source, e.Target}
	if _, ok := g.edges[k]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.Source, e.Target)
	}
	g.edges[k] = e
	g.out[e.Source] = append(g.out[e.Source], e.Target)
	g.in[e.Target] = append(g.in[e.Target], e.Source)
	return nil
}

// Connect is AddEdge for an unpriced edge.
func (g *Graph) Connect(u, v string) error {
	return g.AddEdge(&Edge{Source: u, Target: v})
}

// RemoveNode deletes id and all incident edges.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for _, v := range g.out[id] {
		delete(g.edges, edgeKey{id, v})
		g.in[v] = without(g.in[v], id)
	}
	for _, u := range g.in[id] {
		delete(g.edges, edgeKey{u, id})
		g.out[u] = without(g.out[u], id)
	}
	delete(g.nodes, id)
	delete(g.out, id)
	delete(g.in, id)
	g.order = without(g.order, id)
}

// RemoveEdge deletes u -> v if present.
func (g *Graph) RemoveEdge(u, v string) {
	k := edgeKey{u, v}
	if _, ok := g.edges[k]; !ok {
		return
	}
	delete(g.edges, k)
	g.out[u] = without(g.out[u], v)
	g.in[v] = without(g.in[v], u)
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Edge returns the edge u -> v, or nil.
func (g *Graph) Edge(u, v string) *Edge { return g.edges[edgeKey{u, v}] }

// Children returns the targets of id's outgoing edges in insertion order.
func (g *Graph) Children(id string) []string { return g.out[id] }

// Parents returns the sources of id's incoming edges in insertion order.
func (g *Graph) Parents(id string) []string { return g.in[id] }

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// SortedNodeIDs returns all node ids sorted lexicographically.
func (g *Graph) SortedNodeIDs() []string {
	ids := g.NodeIDs()
	sort.Strings(ids)
	return ids
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	ns := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		ns = append(ns, g.nodes[id])
	}
	return ns
}

// Edges returns all edges ordered by source insertion order, then child order.
func (g *Graph) Edges() []*Edge {
	es := make([]*Edge, 0, len(g.edges))
	for _, u := range g.order {
		for _, v := range g.out[u] {
			es = append(es, g.edges[edgeKey{u, v}])
		}
	}
	return es
}

func (g *Graph) NumNodes() int { return len(g.nodes) }
func (g *Graph) NumEdges() int { return len(g.edges) }

func (g *Graph) InDegree(id string) int  { return len(g.in[id]) }
func (g *Graph) OutDegree(id string) int { return len(g.out[id]) }
func (g *Graph) Degree(id string) int    { return len(g.in[id]) + len(g.out[id]) }

// Clone returns an independently owned copy. Node and edge structs are copied;
// topic vectors are copied too so that the clone never aliases the source.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		n := *g.nodes[id]
		if n.Topics != nil {
			n.Topics = append([]float64(nil), n.Topics...)
		}
		c.AddNode(&n)
	}
	for _, e := range g.Edges() {
		cp := *e
		c.edges[edgeKey{cp.Source, cp.Target}] = &cp
		c.out[cp.Source] = append(c.out[cp.Source], cp.Target)
		c.in[cp.Target] = append(c.in[cp.Target], cp.Source)
	}
	return c
}

// TopologicalOrder returns node ids so that every edge points forward.
// Ties are broken by insertion order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indeg[id] = len(g.in[id])
	}
	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, v := range g.out[id] {
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if len(order) != len(g.order) {
		return nil, ErrCycle
	}
	return order, nil
}

// Descendants returns every node reachable from id, id excluded.
func (g *Graph) Descendants(id string) map[string]bool {
	seen := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range g.out[u] {
			if !seen[v] {
				seen[v] = true
				stack = append(stack, v)
			}
		}
	}
	delete(seen, id)
	return seen
}
