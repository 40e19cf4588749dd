package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

func TestOwnershipGraph_AddEdgeCreatesPlaceholders(t *testing.T) {
	g := model.NewOwnershipGraph()

	added := g.AddEdge(model.Relationship{From: "A", To: "B", Qualification: "49"})
	require.True(t, added)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())

	b, ok := g.Node("B")
	require.True(t, ok)
	assert.True(t, b.Placeholder)
	assert.Equal(t, model.KindCompany, b.Kind)

	rel, ok := g.Edge("A", "B")
	require.True(t, ok)
	assert.Equal(t, model.EdgeParticipation, rel.Kind)
}

func TestOwnershipGraph_RepeatedEdgeKeepsFirstQualification(t *testing.T) {
	g := model.NewOwnershipGraph()
	g.AddEdge(model.Relationship{From: "A", To: "B", Qualification: "49"})
	assert.False(t, g.AddEdge(model.Relationship{From: "A", To: "B", Qualification: "22"}))

	rel, _ := g.Edge("A", "B")
	assert.Equal(t, "49", rel.Qualification)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestOwnershipGraph_SortedAdjacency(t *testing.T) {
	g := model.NewOwnershipGraph()
	for _, to := range []string{"D", "B", "C"} {
		g.AddEdge(model.Relationship{From: "A", To: to})
	}
	g.AddEdge(model.Relationship{From: "C", To: "B"})

	assert.Equal(t, []string{"B", "C", "D"}, g.Successors("A"))
	assert.Equal(t, []string{"A", "C"}, g.Predecessors("B"))
	assert.Equal(t, []string{"A", "D", "B", "C"}, g.NodeIDs())
	assert.Equal(t, []string{"A", "B", "C", "D"}, g.SortedNodeIDs())
}

func TestOwnershipGraph_NodePrecedence(t *testing.T) {
	g := model.NewOwnershipGraph()
	g.EnsureNode("X", model.KindCompany, "")

	assert.False(t, g.AddNode(model.Entity{ID: "X", Kind: model.KindCompany, Name: "first"}))
	n, _ := g.Node("X")
	assert.Equal(t, "first", n.Name, "placeholder upgraded by a real record")

	g.AddNode(model.Entity{ID: "X", Kind: model.KindCompany, Name: "second"})
	n, _ = g.Node("X")
	assert.Equal(t, "first", n.Name, "first real record wins")

	g.PutNode(model.Entity{ID: "X", Kind: model.KindCompany, Name: "target", Capital: decimal.NewFromInt(10)})
	n, _ = g.Node("X")
	assert.Equal(t, "target", n.Name, "canonical record always wins")
	assert.Equal(t, map[string]string{"X": "target"}, g.Names())
}

func TestAnalysisInput_EntityIndex(t *testing.T) {
	in := model.AnalysisInput{
		Target: model.EntityRecord{ID: "11222333000181", Name: "TARGET"},
		RelatedEntities: []model.EntityRecord{
			{ID: "11222333", Name: "RELATED COPY"},
			{ID: "44555666", Name: "FIRST"},
			{ID: "44555666000199", Name: "SECOND"},
		},
	}

	idx := in.EntityIndex()
	assert.Equal(t, "TARGET", idx["11222333"].Name)
	assert.Equal(t, "FIRST", idx["44555666"].Name)
	assert.Equal(t, []string{"11222333", "44555666"}, in.RelatedIDs())
	assert.False(t, in.IsEmpty())
	assert.True(t, model.AnalysisInput{}.IsEmpty())
}

func TestEntityRecord_Defaults(t *testing.T) {
	var r model.EntityRecord
	assert.True(t, r.CapitalValue().IsZero())
	assert.False(t, r.HasCapital())
	assert.False(t, r.IsActive(), "missing status counts as inactive")

	capital := decimal.NewFromInt(5000)
	r = model.EntityRecord{StatusCode: model.StatusActive, Capital: &capital}
	assert.True(t, r.IsActive())
	assert.True(t, r.HasCapital())
}
