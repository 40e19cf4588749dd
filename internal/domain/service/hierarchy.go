package service

import (
	"sort"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

// Summary buckets: holdings are levels -1..-HierarchyBucketDepth and
// subsidiaries 1..HierarchyBucketDepth.
const HierarchyBucketDepth = 3

// MapHierarchy levels every node reachable from root. The upward pass follows
// owners (negative levels), then the downward pass follows owned companies
// (positive levels). A node keeps the level of its first visit, and traversal
// only continues through company nodes. The root always expands.
func MapHierarchy(g *model.OwnershipGraph, root string) model.HierarchyMap {
	h := model.HierarchyMap{
		Root:         root,
		Levels:       make(map[string]int),
		Holdings:     make([]model.HierarchyEntry, 0),
		Subsidiaries: make([]model.HierarchyEntry, 0),
	}
	if root == "" || !g.HasNode(root) {
		return h
	}

	h.Levels[root] = 0
	bfs(g, root, h.Levels, -1, g.Predecessors)
	bfs(g, root, h.Levels, 1, g.Successors)

	for id, level := range h.Levels {
		if level != 0 {
			h.Depth = max(h.Depth, abs(level))
		}
		if level == 0 || abs(level) > HierarchyBucketDepth {
			continue
		}
		n, _ := g.Node(id)
		entry := model.HierarchyEntry{ID: id, Name: n.Name, Kind: n.Kind, Level: level}
		if level < 0 {
			h.Holdings = append(h.Holdings, entry)
		} else {
			h.Subsidiaries = append(h.Subsidiaries, entry)
		}
	}
	sortEntries(h.Holdings)
	sortEntries(h.Subsidiaries)
	return h
}

// bfs runs one directional pass. Each pass keeps its own visited set so a node
// leveled by the other pass is still expanded, but levels are never rewritten.
func bfs(g *model.OwnershipGraph, root string, levels map[string]int, step int, next func(string) []string) {
	dist := map[string]int{root: 0}
	queue := []string{root}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for _, w := range next(v) {
			if _, seen := dist[w]; seen {
				continue
			}
			dist[w] = dist[v] + step
			if _, leveled := levels[w]; !leveled {
				levels[w] = dist[w]
			}
			if n, _ := g.Node(w); n.Kind == model.KindCompany {
				queue = append(queue, w)
			}
		}
	}
}

func sortEntries(entries []model.HierarchyEntry) {
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := abs(entries[i].Level), abs(entries[j].Level)
		if ai != aj {
			return ai < aj
		}
		return entries[i].ID < entries[j].ID
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
