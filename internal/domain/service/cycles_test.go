package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/service"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

func analyze(g *model.OwnershipGraph) model.CycleAnalysis {
	return service.AnalyzeCycles(g, service.DefaultParams().Cycles)
}

// assertSimpleCycles checks every reported cycle is a closed walk without
// repeated nodes and that its tier follows its length.
func assertSimpleCycles(t *testing.T, g *model.OwnershipGraph, a model.CycleAnalysis) {
	t.Helper()
	for _, c := range a.Cycles {
		require.GreaterOrEqual(t, c.Length, 1)
		require.Len(t, c.Nodes, c.Length)
		seen := make(map[string]bool)
		for i, id := range c.Nodes {
			assert.False(t, seen[id], "node %s repeated in %v", id, c.Nodes)
			seen[id] = true
			next := c.Nodes[(i+1)%len(c.Nodes)]
			_, ok := g.Edge(id, next)
			assert.True(t, ok, "missing edge %s->%s in %v", id, next, c.Nodes)
		}
		assert.Equal(t, valueobject.CycleTier(c.Length), c.Tier)
		assert.NotEmpty(t, c.Description)
	}
}

func TestAnalyzeCycles_Triangle(t *testing.T) {
	g := graphOf(edge("A", "B"), edge("B", "C"), edge("C", "A"))
	a := analyze(g)

	require.Equal(t, 1, a.TotalCycles)
	require.Len(t, a.Cycles, 1)
	assert.Equal(t, []string{"A", "B", "C"}, a.Cycles[0].Nodes)
	assert.Equal(t, 3, a.Cycles[0].Length)
	assert.Equal(t, valueobject.RiskLevelHigh, a.Cycles[0].Tier)
	assert.Equal(t, 1, a.ComponentCount)
	assert.InDelta(t, 3.0, a.MeanLength, 1e-9)
	assert.Contains(t, a.Recommendation, "Revisão forense")
	assert.Equal(t, valueobject.RiskLevelHigh, a.Membership["B"])
	assertSimpleCycles(t, g, a)
}

func TestAnalyzeCycles_CrossOwnership(t *testing.T) {
	g := graphOf(edge("A", "B"), edge("B", "A"))
	a := analyze(g)

	require.Equal(t, 1, a.TotalCycles)
	assert.Equal(t, []string{"A", "B"}, a.Cycles[0].Nodes)
	assert.Equal(t, valueobject.RiskLevelMedium, a.Cycles[0].Tier)
	assert.Equal(t, 1, a.ComponentCount)
	assert.Equal(t, [][]string{{"A", "B"}}, a.Components)
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	g := graphOf(edge("A", "A"), edge("A", "B"))
	a := analyze(g)

	require.Equal(t, 1, a.TotalCycles)
	assert.Equal(t, []string{"A"}, a.Cycles[0].Nodes)
	assert.Equal(t, valueobject.RiskLevelLow, a.Cycles[0].Tier)
	assert.Equal(t, 0, a.ComponentCount, "single-node components are not reported")
}

func TestAnalyzeCycles_Acyclic(t *testing.T) {
	g := graphOf(edge("A", "B"), edge("B", "C"), edge("A", "C"))
	a := analyze(g)

	assert.Equal(t, 0, a.TotalCycles)
	assert.Empty(t, a.Cycles)
	assert.Zero(t, a.MeanLength)
	assert.False(t, a.HasCycles())
	assert.NotEmpty(t, a.Recommendation)
	assert.NotContains(t, a.Recommendation, "Revisão forense")

	empty := analyze(model.NewOwnershipGraph())
	assert.Equal(t, 0, empty.TotalCycles)
	assert.Empty(t, empty.Components)
}

func TestAnalyzeCycles_CountsBeyondCap(t *testing.T) {
	// A complete digraph on five nodes has 10 + 20 + 30 + 24 = 84 simple cycles.
	g := completeDigraph(5)
	a := analyze(g)

	assert.Equal(t, 84, a.TotalCycles)
	assert.True(t, a.Truncated)
	require.Len(t, a.Cycles, 20)
	assert.InDelta(t, 320.0/84.0, a.MeanLength, 1e-9)
	assert.Equal(t, 1, a.ComponentCount)

	for i := 1; i < len(a.Cycles); i++ {
		prev, cur := a.Cycles[i-1], a.Cycles[i]
		require.GreaterOrEqual(t, prev.Tier.Severity(), cur.Tier.Severity())
		if prev.Tier == cur.Tier {
			require.GreaterOrEqual(t, prev.Length, cur.Length)
		}
	}
	for _, c := range a.Cycles {
		assert.Equal(t, "1", c.Nodes[0], "cycles are listed from their smallest node")
	}
	assertSimpleCycles(t, g, a)
}

func TestAnalyzeCycles_CompleteDigraphOnFour(t *testing.T) {
	// 6 two-cycles + 8 three-cycles + 6 four-cycles.
	a := analyze(completeDigraph(4))
	assert.Equal(t, 20, a.TotalCycles)
	assert.False(t, a.Truncated)
	assert.Len(t, a.Cycles, 20)
}

func TestAnalyzeCycles_SortsByTierThenLength(t *testing.T) {
	g := graphOf(
		edge("A", "B"), edge("B", "A"),
		edge("C", "D"), edge("D", "E"), edge("E", "F"), edge("F", "C"),
		edge("G", "G"),
		edge("H", "I"), edge("I", "J"), edge("J", "K"), edge("K", "L"), edge("L", "H"),
	)
	a := analyze(g)

	require.Equal(t, 4, a.TotalCycles)
	lengths := make([]int, 0, len(a.Cycles))
	for _, c := range a.Cycles {
		lengths = append(lengths, c.Length)
	}
	assert.Equal(t, []int{5, 4, 2, 1}, lengths)
	assert.Equal(t, 3, a.ComponentCount)
	assertSimpleCycles(t, g, a)
}

func TestAnalyzeCycles_StableAcrossInsertionOrder(t *testing.T) {
	edges := [][2]string{
		edge("A", "B"), edge("B", "C"), edge("C", "A"), edge("C", "D"),
		edge("D", "B"), edge("B", "A"), edge("D", "D"),
	}
	reversed := make([][2]string, len(edges))
	for i, e := range edges {
		reversed[len(edges)-1-i] = e
	}

	first := analyze(graphOf(edges...))
	second := analyze(graphOf(reversed...))

	assert.Equal(t, first.Cycles, second.Cycles)
	assert.Equal(t, first.TotalCycles, second.TotalCycles)
	assert.Equal(t, first.Components, second.Components)
}

func TestAnalyzeCycles_SmallCaps(t *testing.T) {
	a := service.AnalyzeCycles(completeDigraph(4), service.CycleParams{MaxStored: 5, MaxReported: 3})
	assert.Equal(t, 20, a.TotalCycles)
	assert.Len(t, a.Cycles, 3)
	assert.True(t, a.Truncated)
}

func TestStronglyConnectedComponents(t *testing.T) {
	g := graphOf(
		edge("A", "B"), edge("B", "A"),
		edge("C", "D"), edge("D", "E"), edge("E", "C"),
		edge("E", "F"),
		edge("G", "G"),
	)

	comps := service.StronglyConnectedComponents(g)
	assert.Equal(t, [][]string{{"A", "B"}, {"C", "D", "E"}}, comps)
}
