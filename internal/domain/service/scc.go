package service

import (
	"sort"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

// tarjan computes strongly connected components with Tarjan's algorithm.
// Nodes and successors are visited in sorted order, so the output is
// deterministic for a given graph.
type tarjan struct {
	g       *model.OwnershipGraph
	include func(string) bool
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	next    int
	comps   [][]string
}

func newTarjan(g *model.OwnershipGraph, include func(string) bool) *tarjan {
	return &tarjan{
		g:       g,
		include: include,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
}

func (t *tarjan) visit(v string) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.Successors(v) {
		if t.include != nil && !t.include(w) {
			continue
		}
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] == t.index[v] {
		var comp []string
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		sort.Strings(comp)
		t.comps = append(t.comps, comp)
	}
}

// componentOf returns the component containing start within the included nodes.
func (t *tarjan) componentOf(start string) []string {
	t.visit(start)
	for _, c := range t.comps {
		for _, id := range c {
			if id == start {
				return c
			}
		}
	}
	return nil
}

// tarjanAll runs one Tarjan pass over every node of g.
func tarjanAll(g *model.OwnershipGraph) *tarjan {
	t := newTarjan(g, nil)
	for _, v := range g.SortedNodeIDs() {
		if _, seen := t.index[v]; !seen {
			t.visit(v)
		}
	}
	return t
}

// multiNode keeps the components with more than one node, ordered by their
// first id.
func multiNode(comps [][]string) [][]string {
	out := make([][]string, 0)
	for _, c := range comps {
		if len(c) > 1 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// StronglyConnectedComponents returns the components of g with more than one
// node. Each component is sorted and components are ordered by their first id.
func StronglyConnectedComponents(g *model.OwnershipGraph) [][]string {
	return multiNode(tarjanAll(g).comps)
}
