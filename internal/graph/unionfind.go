package graph

// UnionFind implements union-find with path compression and union by rank
// over dense integer indices.
type UnionFind struct {
	parent []int
	rank   []int
	size   []int
}

// NewUnionFind creates n singleton components 0..n-1.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the representative of i's component.
func (uf *UnionFind) Find(i int) int {
	root := i
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[i] != root {
		next := uf.parent[i]
		uf.parent[i] = root
		i = next
	}
	return root
}

// Union merges the components of a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b int) bool {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return false
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	return true
}

// Sizes returns the size of every component, in order of first member index.
func (uf *UnionFind) Sizes() []int {
	var sizes []int
	seen := make(map[int]bool)
	for i := range uf.parent {
		r := uf.Find(i)
		if !seen[r] {
			seen[r] = true
			sizes = append(sizes, uf.size[r])
		}
	}
	return sizes
}
