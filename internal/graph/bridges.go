package graph

import "sort"

// ArticulationPoint is an interaction whose removal splits its conversation
type ArticulationPoint struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Degree int    `json:"degree"`
}

// BridgeEdge is a link whose removal splits its conversation
type BridgeEdge struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Cost     float64 `json:"cost"`
}

// BridgeReport contains bridge analysis results
type BridgeReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	APCount            int                 `json:"ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// ComputeBridges finds articulation points and bridge edges of g viewed as an
// undirected graph. Articulation points are ordered by degree, highest first.
func ComputeBridges(g *Graph) *BridgeReport {
	if g.NumNodes() == 0 {
		return &BridgeReport{}
	}

	// Map node IDs to indices
	nodeIDs := g.NodeIDs()
	idToIdx := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIdx[id] = i
	}
	n := len(nodeIDs)

	// Undirected adjacency, one entry per unordered pair
	adjIdx := make([][]int, n)
	type edgePair struct{ u, v int }
	seen := make(map[edgePair]bool)
	for _, e := range g.Edges() {
		u, v := idToIdx[e.Source], idToIdx[e.Target]
		if u == v {
			continue
		}
		key := edgePair{u, v}
		if u > v {
			key = edgePair{v, u}
		}
		if !seen[key] {
			seen[key] = true
			adjIdx[u] = append(adjIdx[u], v)
			adjIdx[v] = append(adjIdx[v], u)
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	// Iterative Tarjan for each connected component
	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(adjIdx[node]) {
				child := adjIdx[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}
				if visited[child] {
					// Back edge
					low[node] = min(low[node], disc[child])
					continue
				}

				// Tree edge
				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			// Done with this node, pop and propagate
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			pn := stack[len(stack)-1].node
			low[pn] = min(low[pn], low[node])
			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if pn != start && low[node] >= disc[pn] {
				isAP[pn] = true
			}
		}

		// Root is AP if 2+ tree children
		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	report := &BridgeReport{}
	for i := 0; i < n; i++ {
		if isAP[i] {
			id := nodeIDs[i]
			report.ArticulationPoints = append(report.ArticulationPoints, ArticulationPoint{
				ID:     id,
				Sender: g.Node(id).Sender,
				Degree: len(adjIdx[i]),
			})
		}
	}
	sort.SliceStable(report.ArticulationPoints, func(i, j int) bool {
		return report.ArticulationPoints[i].Degree > report.ArticulationPoints[j].Degree
	})

	for _, pair := range bridgePairs {
		u, v := nodeIDs[pair[0]], nodeIDs[pair[1]]
		e := g.Edge(u, v)
		if e == nil {
			e = g.Edge(v, u)
			u, v = v, u
		}
		report.BridgeEdges = append(report.BridgeEdges, BridgeEdge{SourceID: u, TargetID: v, Cost: e.Cost})
	}

	report.APCount = len(report.ArticulationPoints)
	report.BridgeCount = len(report.BridgeEdges)
	return report
}
