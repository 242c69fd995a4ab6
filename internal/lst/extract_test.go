package lst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtrace/internal/graph"
)

type edge struct {
	u, v string
	cost float64
}

func build(t *testing.T, ids []string, rewards map[string]int, edges ...edge) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range ids {
		r, ok := rewards[id]
		if !ok {
			r = 1
		}
		g.AddNode(&graph.Node{ID: id, Reward: r})
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(&graph.Edge{Source: e.u, Target: e.v, Cost: e.cost, Priced: true}))
	}
	return g
}

func intp(i int) *int { return &i }

func TestExtract_Path(t *testing.T) {
	g := build(t, []string{"root", "a", "b"}, nil, edge{"root", "a", 1}, edge{"a", "b", 2})

	res, err := Extract(g, "root", Options{Budget: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Reward)
	assert.Equal(t, 3, res.Cost)
	assert.Equal(t, []string{"root", "a", "b"}, res.Tree.NodeIDs())
	assert.Equal(t, 3.0, res.Tree.Cost())

	res, err = Extract(g, "root", Options{Budget: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reward)
	assert.Equal(t, []string{"root", "a"}, res.Tree.NodeIDs())

	res, err = Extract(g, "root", Options{Budget: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reward)
	assert.Equal(t, 0, res.Cost)
	assert.Equal(t, []string{"root"}, res.Tree.NodeIDs())
	assert.Equal(t, 0, res.Tree.NumEdges())
}

func TestExtract_TwoLeaves(t *testing.T) {
	g := build(t, []string{"root", "x", "y"}, nil, edge{"root", "x", 1}, edge{"root", "y", 1})

	res, err := Extract(g, "root", Options{Budget: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Reward)
	assert.Equal(t, 2, res.Cost)
	assert.ElementsMatch(t, []string{"x", "y"}, res.Tree.Children("root"))

	res, err = Extract(g, "root", Options{Budget: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reward)
	assert.Equal(t, 2, res.Tree.Len())
	assert.Equal(t, []string{"x"}, res.Tree.Children("root"), "left child wins ties")
}

func TestExtract_SiblingsStayDisjoint(t *testing.T) {
	// a and b both reach c; c may be credited to one branch only.
	g := build(t, []string{"r", "a", "b", "c"}, nil,
		edge{"r", "a", 1}, edge{"r", "b", 1}, edge{"a", "c", 1}, edge{"b", "c", 1})

	res, err := Extract(g, "r", Options{Budget: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Reward)
	assert.Equal(t, 3, res.Cost)
	assert.Equal(t, 4, res.Tree.Len())
	assert.Equal(t, "a", res.Tree.Parent("c"))
	assert.Equal(t, "", res.Tree.Parent("r"))
}

func TestExtract_BudgetBelowEveryEdge(t *testing.T) {
	g := build(t, []string{"r", "a", "b"}, nil, edge{"r", "a", 5}, edge{"r", "b", 7})
	res, err := Extract(g, "r", Options{Budget: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, res.Tree.NodeIDs())
	assert.Equal(t, 1, res.Reward)
}

func TestExtract_CheapestAmongBest(t *testing.T) {
	// zero-reward placeholder: reaching it adds cost but no reward.
	g := build(t, []string{"r", "d"}, map[string]int{"d": 0}, edge{"r", "d", 2})
	res, err := Extract(g, "r", Options{Budget: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cost)
	assert.Equal(t, []string{"r"}, res.Tree.NodeIDs())
}

func TestExtract_ReferencesSourceValues(t *testing.T) {
	g := build(t, []string{"r", "a"}, nil, edge{"r", "a", 1})
	res, err := Extract(g, "r", Options{Budget: 1})
	require.NoError(t, err)
	assert.Same(t, g.Node("r"), res.Tree.Node("r"))
	assert.Same(t, g.Node("a"), res.Tree.Node("a"))
	assert.Same(t, g.Edge("r", "a"), res.Tree.Edge("r", "a"))
}

func TestExtract_Precision(t *testing.T) {
	g := build(t, []string{"r", "a", "b"}, nil, edge{"r", "a", 0.1}, edge{"a", "b", 0.2})

	res, err := Extract(g, "r", Options{Budget: 0.3, Precision: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Reward, "0.1 + 0.2 must fit a 0.3 budget")
	assert.Equal(t, 3, res.Cost)
	assert.Equal(t, 3, res.Budget)
	assert.Equal(t, 10, res.Scale)

	res, err = Extract(g, "r", Options{Budget: 0.25, Precision: intp(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reward)
	assert.Equal(t, 10, res.Cost)
	assert.Equal(t, 100, res.Scale)

	_, err = Extract(g, "r", Options{Budget: 1})
	assert.ErrorIs(t, err, ErrFractionalCost)

	_, err = Extract(g, "r", Options{Budget: 1, Precision: intp(-1)})
	assert.Error(t, err)
}

func TestExtract_CustomRound(t *testing.T) {
	g := build(t, []string{"r", "a"}, nil, edge{"r", "a", 0.14})
	res, err := Extract(g, "r", Options{Budget: 0.1, Precision: intp(1), Round: func(f float64) float64 {
		return float64(int(f))
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reward, "truncating 1.4 leaves cost 1")
}

func TestExtract_HugeBudget(t *testing.T) {
	g := build(t, []string{"root", "a", "b"}, nil, edge{"root", "a", 1}, edge{"a", "b", 2})

	tests := []struct {
		name string
		opts Options
	}{
		{"integral 1e19", Options{Budget: 1e19}},
		{"integral 1e300", Options{Budget: 1e300}},
		{"scaled past range", Options{Budget: 1e15, Precision: intp(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract(g, "root", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 3, res.Reward)
			assert.Equal(t, []string{"root", "a", "b"}, res.Tree.NodeIDs())
			assert.Positive(t, res.Budget)
		})
	}

	res, err := Extract(g, "root", Options{Budget: 1e18})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Reward)
	assert.Equal(t, int(1e18), res.Budget)
}

func TestExtract_CostRange(t *testing.T) {
	g := build(t, []string{"root", "a", "b"}, nil, edge{"root", "a", 1}, edge{"a", "b", 2})

	_, err := Extract(g, "root", Options{Budget: 10, Precision: intp(19)})
	assert.ErrorIs(t, err, ErrCostRange)

	_, err = Extract(g, "root", Options{Budget: 10, Precision: intp(18)})
	assert.NoError(t, err)

	big := build(t, []string{"root", "a"}, nil, edge{"root", "a", 1e19})
	_, err = Extract(big, "root", Options{Budget: 1})
	assert.ErrorIs(t, err, ErrCostRange)

	// Each edge fits but their sum does not.
	sum := build(t, []string{"root", "a", "b"}, nil, edge{"root", "a", 6e18}, edge{"root", "b", 6e18})
	_, err = Extract(sum, "root", Options{Budget: 1})
	assert.ErrorIs(t, err, ErrCostRange)
}

func TestExtract_Validation(t *testing.T) {
	g := build(t, []string{"r", "a", "b", "c", "x", "y", "z", "w"}, nil,
		edge{"r", "a", 1}, edge{"r", "b", 1}, edge{"r", "c", 1},
		edge{"x", "y", 1}, edge{"x", "z", 1})

	_, err := Extract(g, "r", Options{Budget: 3})
	assert.ErrorIs(t, err, ErrNotBinarized)

	_, err = Extract(g, "x", Options{Budget: 3})
	assert.NoError(t, err, "nodes outside the root's reach are not inspected")

	_, err = Extract(g, "nope", Options{Budget: 3})
	assert.ErrorIs(t, err, ErrUnknownRoot)

	_, err = Extract(g, "x", Options{Budget: -1})
	assert.ErrorIs(t, err, ErrNegativeBudget)

	require.NoError(t, g.Connect("w", "x"))
	_, err = Extract(g, "w", Options{Budget: 3})
	assert.ErrorIs(t, err, ErrUnpricedEdge)

	neg := build(t, []string{"r", "a"}, nil, edge{"r", "a", -1})
	_, err = Extract(neg, "r", Options{Budget: 3})
	assert.ErrorIs(t, err, graph.ErrNegativeCost)
}

func TestExtract_CostFunc(t *testing.T) {
	g := build(t, []string{"r", "a", "b"}, nil, edge{"r", "a", 1}, edge{"r", "b", 1})

	// Charge only the most expensive branch.
	maxCost := func(ctx *CostContext, node string, children []ChildCost) (int, error) {
		m := 0
		for _, ch := range children {
			if c := ch.Cost + ctx.EdgeCost(node, ch.Node); c > m {
				m = c
			}
		}
		return m, nil
	}
	res, err := Extract(g, "r", Options{Budget: 1, Cost: maxCost})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Reward)
	assert.Equal(t, 1, res.Cost)

	boom := errors.New("boom")
	_, err = Extract(g, "r", Options{Budget: 1, Cost: func(*CostContext, string, []ChildCost) (int, error) {
		return 0, boom
	}})
	assert.ErrorIs(t, err, boom)
}

func TestCostContext(t *testing.T) {
	g := build(t, []string{"r", "a"}, nil, edge{"r", "a", 0.5})
	var seen bool
	probe := func(ctx *CostContext, node string, children []ChildCost) (int, error) {
		p, ok := ctx.Precision()
		assert.True(t, ok)
		assert.Equal(t, 1, p)
		assert.Same(t, g, ctx.Graph())
		r, ok := ctx.Covered("a", 0)
		assert.True(t, ok)
		assert.Equal(t, 1, r)
		_, ok = ctx.Covered("a", 99)
		assert.False(t, ok)
		seen = true
		return SumCost(ctx, node, children)
	}
	res, err := Extract(g, "r", Options{Budget: 1, Precision: intp(1), Cost: probe})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 5, res.Cost)
}

func TestExtract_Deterministic(t *testing.T) {
	g := build(t, []string{"r", "a", "b", "c", "d"}, nil,
		edge{"r", "a", 1}, edge{"r", "b", 1}, edge{"a", "c", 1}, edge{"b", "c", 1}, edge{"b", "d", 1})

	first, err := Extract(g, "r", Options{Budget: 3})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Extract(g, "r", Options{Budget: 3})
		require.NoError(t, err)
		assert.Equal(t, first.Tree.NodeIDs(), again.Tree.NodeIDs())
		assert.Equal(t, first.Tree.Edges(), again.Tree.Edges())
		assert.Equal(t, first.Cost, again.Cost)
	}
}

func TestExtract_DoesNotModifyGraph(t *testing.T) {
	g := build(t, []string{"r", "a"}, nil, edge{"r", "a", 0.25})
	_, err := Extract(g, "r", Options{Budget: 1, Precision: intp(2)})
	require.NoError(t, err)
	assert.Equal(t, 0.25, g.Edge("r", "a").Cost)
}
