package events

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtrace/internal/graph"
	"mailtrace/internal/lst"
)

func fixture(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i, id := range []string{"r", "a", "b", "c", "late", "x"} {
		g.AddNode(&graph.Node{ID: id, Reward: 1, Timestamp: float64(i * 10)})
	}
	g.Node("late").Timestamp = 1000
	for _, e := range []graph.Edge{
		{Source: "r", Target: "a", Cost: 1},
		{Source: "r", Target: "b", Cost: 1},
		{Source: "r", Target: "c", Cost: 1},
		{Source: "a", Target: "late", Cost: 1},
	} {
		e := e
		e.Priced = true
		require.NoError(t, g.AddEdge(&e))
	}
	return g
}

func TestSampleRoots(t *testing.T) {
	g := fixture(t)
	assert.Equal(t, g.NodeIDs(), SampleRoots(g, 10, rand.New(rand.NewSource(1))))
	assert.Empty(t, SampleRoots(g, 0, rand.New(rand.NewSource(1))))

	roots := SampleRoots(g, 3, rand.New(rand.NewSource(42)))
	require.Len(t, roots, 3)
	seen := map[string]bool{}
	for _, r := range roots {
		assert.True(t, g.Has(r))
		assert.False(t, seen[r], "sampled twice: %s", r)
		seen[r] = true
	}
	assert.Equal(t, roots, SampleRoots(g, 3, rand.New(rand.NewSource(42))))
}

func TestCandidates(t *testing.T) {
	g := fixture(t)
	span := 100.0
	cands, err := Candidates(context.Background(), g, []string{"x", "r", "a"}, Params{
		Budget:   10,
		Timespan: &span,
		Workers:  2,
	})
	require.NoError(t, err)
	require.Len(t, cands, 1, "x has no edges; a loses its only edge to the window")

	c := cands[0]
	assert.Equal(t, "r", c.Root)
	assert.Equal(t, 4, c.Result.Reward)
	assert.Equal(t, []string{"r", "a", "b", "c"}, c.Tree.NodeIDs())
	assert.Equal(t, 3.0, c.Tree.Cost())
	assert.Equal(t, 6, g.NumNodes(), "source graph must not gain dummies")

	cands, err = Candidates(context.Background(), g, []string{"r", "a"}, Params{Budget: 10})
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.True(t, cands[0].Tree.Has("late"))
	assert.Equal(t, "a", cands[1].Root)
}

func TestCandidates_KeepTrivial(t *testing.T) {
	g := fixture(t)
	span := 100.0
	for name, ts := range map[string]*float64{"windowed": &span, "unbounded": nil} {
		t.Run(name, func(t *testing.T) {
			cands, err := Candidates(context.Background(), g, []string{"x", "r"}, Params{
				Budget:      10,
				Timespan:    ts,
				Workers:     2,
				KeepTrivial: true,
			})
			require.NoError(t, err)
			require.Len(t, cands, 2)
			assert.Equal(t, "x", cands[0].Root)
			assert.Equal(t, []string{"x"}, cands[0].Tree.NodeIDs())
			assert.Equal(t, 1, cands[0].Result.Reward)
			assert.Equal(t, 0, cands[0].Result.Cost)
			assert.Equal(t, "r", cands[1].Root)
		})
	}
}

func TestCandidates_PropagatesErrors(t *testing.T) {
	g := fixture(t)
	_, err := Candidates(context.Background(), g, []string{"r"}, Params{Budget: -1})
	assert.ErrorIs(t, err, lst.ErrNegativeBudget)

	_, err = Candidates(context.Background(), g, []string{"ghost"}, Params{Budget: 1})
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}

func tree(t *testing.T, reward int, ids ...string) *Candidate {
	t.Helper()
	g := graph.New()
	for _, id := range ids {
		g.AddNode(&graph.Node{ID: id, Reward: 1})
	}
	for i := 1; i < len(ids); i++ {
		require.NoError(t, g.AddEdge(&graph.Edge{Source: ids[i-1], Target: ids[i], Priced: true}))
	}
	res, err := lst.Extract(g, ids[0], lst.Options{Budget: 10})
	require.NoError(t, err)
	res.Reward = reward
	return &Candidate{Root: ids[0], Result: res, Tree: res.Tree}
}

func TestKBest(t *testing.T) {
	big := tree(t, 4, "a", "b", "c", "d")
	overlapping := tree(t, 3, "b", "c", "d")
	fresh := tree(t, 2, "x", "y")
	twin := tree(t, 5, "p", "q")

	picked := KBest([]*Candidate{overlapping, big, fresh, twin}, 3)
	require.Len(t, picked, 3)
	assert.Same(t, big, picked[0])
	assert.Same(t, twin, picked[1], "equal coverage goes to the higher reward")
	assert.Same(t, fresh, picked[2])

	picked = KBest([]*Candidate{big, overlapping}, 5)
	assert.Len(t, picked, 1, "nothing new left to cover")

	assert.Empty(t, KBest(nil, 3))
}
