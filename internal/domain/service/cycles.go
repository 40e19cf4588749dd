package service

import (
	"fmt"
	"sort"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// Cycle descriptions by tier.
const (
	descSelfLoop    = "Autoparticipação, provável artefato de dados"
	descCross       = "Participação cruzada"
	descTriangular  = "Estrutura triangular, possível ocultação de beneficiário"
	descComplex     = "Estrutura circular complexa"
	recommendClean  = "Nenhuma estrutura circular de participação detectada"
	recommendReview = "Revisão forense obrigatória: %d estrutura(s) circular(es) de participação detectada(s)"
)

func describeCycle(length int) string {
	switch {
	case length >= 4:
		return descComplex
	case length == 3:
		return descTriangular
	case length == 2:
		return descCross
	default:
		return descSelfLoop
	}
}

// johnson enumerates elementary circuits (Johnson, 1975). One Tarjan pass
// over the whole graph finds the components that can hold a cycle; only
// their nodes are used as start vertices. Start vertices are taken in sorted
// order and each search is restricted to the strongly connected component of
// the start vertex within its own component's ids not smaller than it, so
// every cycle is found exactly once, beginning at its smallest id.
type johnson struct {
	g        *model.OwnershipGraph
	allowed  map[string]bool
	blocked  map[string]bool
	blockMap map[string]map[string]struct{}
	stack    []string
	start    string

	maxStored int
	stored    [][]string
	count     int
	lengthSum int
	worst     map[string]valueobject.RiskLevel

	components [][]string
	visits     int
}

func (j *johnson) run() {
	all := tarjanAll(j.g)
	j.components = all.comps
	j.visits = all.next

	compOf := make(map[string]int)
	var starts []string
	for i, c := range all.comps {
		if len(c) == 1 {
			if _, self := j.g.Edge(c[0], c[0]); !self {
				continue
			}
		}
		for _, id := range c {
			compOf[id] = i
			starts = append(starts, id)
		}
	}
	sort.Strings(starts)

	for _, s := range starts {
		ci := compOf[s]
		t := newTarjan(j.g, func(id string) bool {
			c, ok := compOf[id]
			return ok && c == ci && id >= s
		})
		comp := t.componentOf(s)
		j.visits += t.next
		if len(comp) == 1 {
			if _, self := j.g.Edge(s, s); !self {
				continue
			}
		}

		j.allowed = make(map[string]bool, len(comp))
		j.blocked = make(map[string]bool, len(comp))
		j.blockMap = make(map[string]map[string]struct{}, len(comp))
		for _, id := range comp {
			j.allowed[id] = true
		}
		j.start = s
		j.circuit(s)
	}
}

func (j *johnson) circuit(v string) bool {
	closed := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true

	for _, w := range j.g.Successors(v) {
		if !j.allowed[w] {
			continue
		}
		if w == j.start {
			j.emit()
			closed = true
		} else if !j.blocked[w] && j.circuit(w) {
			closed = true
		}
	}

	if closed {
		j.unblock(v)
	} else {
		for _, w := range j.g.Successors(v) {
			if !j.allowed[w] {
				continue
			}
			if j.blockMap[w] == nil {
				j.blockMap[w] = make(map[string]struct{})
			}
			j.blockMap[w][v] = struct{}{}
		}
	}

	j.stack = j.stack[:len(j.stack)-1]
	return closed
}

func (j *johnson) unblock(u string) {
	j.blocked[u] = false
	for w := range j.blockMap[u] {
		delete(j.blockMap[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}

func (j *johnson) emit() {
	j.count++
	j.lengthSum += len(j.stack)

	tier := valueobject.CycleTier(len(j.stack))
	for _, id := range j.stack {
		if tier.Severity() > j.worst[id].Severity() {
			j.worst[id] = tier
		}
	}

	if len(j.stored) < j.maxStored {
		c := make([]string, len(j.stack))
		copy(c, j.stack)
		j.stored = append(j.stored, c)
	}
}

// AnalyzeCycles enumerates every simple cycle of g, keeps the first
// MaxStored in discovery order, ranks them by tier then length, and reports
// the top MaxReported together with the strongly connected components.
// TotalCycles and MeanLength always cover all cycles found.
func AnalyzeCycles(g *model.OwnershipGraph, p CycleParams) model.CycleAnalysis {
	j := &johnson{
		g:         g,
		maxStored: p.MaxStored,
		worst:     make(map[string]valueobject.RiskLevel),
	}
	j.run()

	cycles := make([]model.Cycle, 0, len(j.stored))
	for _, nodes := range j.stored {
		names := make([]string, len(nodes))
		for i, id := range nodes {
			if n, ok := g.Node(id); ok {
				names[i] = n.Name
			}
		}
		cycles = append(cycles, model.Cycle{
			Nodes:       nodes,
			Names:       names,
			Length:      len(nodes),
			Tier:        valueobject.CycleTier(len(nodes)),
			Description: describeCycle(len(nodes)),
		})
	}
	sort.SliceStable(cycles, func(a, b int) bool {
		sa, sb := cycles[a].Tier.Severity(), cycles[b].Tier.Severity()
		if sa != sb {
			return sa > sb
		}
		return cycles[a].Length > cycles[b].Length
	})
	truncated := j.count > len(cycles)
	if len(cycles) > p.MaxReported {
		cycles = cycles[:p.MaxReported]
		truncated = true
	}

	comps := multiNode(j.components)
	out := model.CycleAnalysis{
		Cycles:         cycles,
		TotalCycles:    j.count,
		Truncated:      truncated,
		Components:     comps,
		ComponentCount: len(comps),
		Recommendation: recommendClean,
		Membership:     j.worst,
	}
	if j.count > 0 {
		out.MeanLength = float64(j.lengthSum) / float64(j.count)
		out.Recommendation = fmt.Sprintf(recommendReview, j.count)
	}
	return out
}
