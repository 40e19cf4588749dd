package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EdgeKind classifies a relationship.
type EdgeKind string

// EdgeParticipation is an ownership/partnership stake.
const EdgeParticipation EdgeKind = "PARTICIPACAO"

// Entity is a node of the ownership graph.
type Entity struct {
	ID           string
	Kind         EntityKind
	Name         string
	Capital      decimal.Decimal
	StatusCode   string
	SizeClass    string
	State        string
	Municipality string
	ActivityCode string
	// Placeholder is set for nodes created from an edge reference alone.
	Placeholder bool
}

// EntityFromRecord converts a company record into a node.
func EntityFromRecord(r EntityRecord) Entity {
	return Entity{
		ID:           r.BaseID(),
		Kind:         KindCompany,
		Name:         r.Name,
		Capital:      r.CapitalValue(),
		StatusCode:   r.StatusCode,
		SizeClass:    r.SizeClass,
		State:        r.State,
		Municipality: r.Municipality,
		ActivityCode: r.ActivityCode,
	}
}

// Relationship is a directed owner -> owned edge.
type Relationship struct {
	From          string
	To            string
	Qualification string
	Kind          EdgeKind
}

type edgeKey struct{ from, to string }

// OwnershipGraph is a directed graph with at most one edge per ordered pair.
// Every edge endpoint is a node.
type OwnershipGraph struct {
	nodes map[string]*Entity
	order []string
	succ  map[string][]string
	pred  map[string][]string
	edges map[edgeKey]Relationship
}

// NewOwnershipGraph creates an empty graph.
func NewOwnershipGraph() *OwnershipGraph {
	return &OwnershipGraph{
		nodes: make(map[string]*Entity),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
		edges: make(map[edgeKey]Relationship),
	}
}

// AddNode inserts e unless a node with the same id exists. It reports whether
// the node was inserted. A placeholder is upgraded in place by a real record.
func (g *OwnershipGraph) AddNode(e Entity) bool {
	if existing, ok := g.nodes[e.ID]; ok {
		if existing.Placeholder && !e.Placeholder {
			*existing = e
		}
		return false
	}
	n := e
	g.nodes[e.ID] = &n
	g.order = append(g.order, e.ID)
	return true
}

// PutNode inserts or replaces a node. Used for the canonical target record.
func (g *OwnershipGraph) PutNode(e Entity) {
	if existing, ok := g.nodes[e.ID]; ok {
		*existing = e
		return
	}
	g.AddNode(e)
}

// EnsureNode returns the node with id, creating a placeholder of kind when absent.
func (g *OwnershipGraph) EnsureNode(id string, kind EntityKind, name string) *Entity {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	g.AddNode(Entity{ID: id, Kind: kind, Name: name, Placeholder: true})
	return g.nodes[id]
}

// AddEdge adds r if the ordered pair is new; repeated pairs keep the first
// qualification. Missing endpoints become placeholder companies.
func (g *OwnershipGraph) AddEdge(r Relationship) bool {
	if r.Kind == "" {
		r.Kind = EdgeParticipation
	}
	k := edgeKey{r.From, r.To}
	if _, ok := g.edges[k]; ok {
		return false
	}
	g.EnsureNode(r.From, KindCompany, "")
	g.EnsureNode(r.To, KindCompany, "")
	g.edges[k] = r
	g.succ[r.From] = insertSorted(g.succ[r.From], r.To)
	g.pred[r.To] = insertSorted(g.pred[r.To], r.From)
	return true
}

func insertSorted(list []string, id string) []string {
	i := sort.SearchStrings(list, id)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}

// Node returns the node with id.
func (g *OwnershipGraph) Node(id string) (Entity, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Entity{}, false
	}
	return *n, true
}

// HasNode reports whether id is a node.
func (g *OwnershipGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns the relationship from -> to.
func (g *OwnershipGraph) Edge(from, to string) (Relationship, bool) {
	r, ok := g.edges[edgeKey{from, to}]
	return r, ok
}

// NodeIDs returns node ids in insertion order.
func (g *OwnershipGraph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// SortedNodeIDs returns node ids in lexical order.
func (g *OwnershipGraph) SortedNodeIDs() []string {
	out := g.NodeIDs()
	sort.Strings(out)
	return out
}

// Successors returns the sorted ids owned by id. The slice must not be modified.
func (g *OwnershipGraph) Successors(id string) []string { return g.succ[id] }

// Predecessors returns the sorted ids owning id. The slice must not be modified.
func (g *OwnershipGraph) Predecessors(id string) []string { return g.pred[id] }

func (g *OwnershipGraph) NodeCount() int { return len(g.nodes) }
func (g *OwnershipGraph) EdgeCount() int { return len(g.edges) }
func (g *OwnershipGraph) IsEmpty() bool  { return len(g.nodes) == 0 }

// Names returns an id -> display name index for non-empty names.
func (g *OwnershipGraph) Names() map[string]string {
	names := make(map[string]string, len(g.nodes))
	for id, n := range g.nodes {
		if n.Name != "" {
			names[id] = n.Name
		}
	}
	return names
}
