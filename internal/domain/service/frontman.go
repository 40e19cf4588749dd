package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// holdings indexes which companies each owner holds, in first-seen order.
type holdings struct {
	owners []string
	kinds  map[string]model.EntityKind
	names  map[string]string
	owned  map[string][]string
	// qualification of each owner -> owned pair, first seen wins
	quals map[string]map[string]string
	// partners of each owned company, first-seen order
	partners map[string][]string
}

func indexHoldings(records []model.PartnershipRecord) holdings {
	h := holdings{
		kinds:    make(map[string]model.EntityKind),
		names:    make(map[string]string),
		owned:    make(map[string][]string),
		quals:    make(map[string]map[string]string),
		partners: make(map[string][]string),
	}
	for _, p := range records {
		owner, kind, ok := model.ClassifyOwner(p.OwnerID)
		if !ok {
			continue
		}
		owned := p.OwnedBaseID()
		if len(owned) != model.CNPJBaseLength {
			continue
		}
		if _, seen := h.kinds[owner]; !seen {
			h.owners = append(h.owners, owner)
			h.kinds[owner] = kind
			h.quals[owner] = make(map[string]string)
		}
		if h.names[owner] == "" && p.OwnerName != "" {
			h.names[owner] = p.OwnerName
		}
		if _, seen := h.quals[owner][owned]; seen {
			continue
		}
		h.quals[owner][owned] = p.Qualification
		h.owned[owner] = append(h.owned[owner], owned)
		h.partners[owned] = append(h.partners[owned], owner)
	}
	return h
}

// topShare returns the most frequent value and its share of total.
func topShare(values []string, total int) (string, float64) {
	if total == 0 {
		return "", 0
	}
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, v := range values {
		counts[v]++
		if n := counts[v]; n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, float64(bestN) / float64(total)
}

func pct(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// DetectFrontMen scores every person holding stakes in at least MinEntities
// distinct companies. Persons scoring below MinScore are omitted.
func DetectFrontMen(in model.AnalysisInput, p FrontManParams) []model.FrontManFinding {
	entities := in.EntityIndex()
	h := indexHoldings(in.RelatedPartnerships)

	findings := make([]model.FrontManFinding, 0)
	for _, person := range h.owners {
		if h.kinds[person] != model.KindPerson {
			continue
		}
		owned := h.owned[person]
		n := len(owned)
		if n < p.MinEntities {
			continue
		}

		var (
			inactive       int
			capital        = decimal.Zero
			quals          = make([]string, 0, n)
			municipalities = make([]string, 0, n)
		)
		for _, id := range owned {
			e := entities[id]
			if !e.IsActive() {
				inactive++
			}
			capital = capital.Add(e.CapitalValue())
			quals = append(quals, h.quals[person][id])
			if e.Municipality != "" {
				municipalities = append(municipalities, e.Municipality)
			}
		}

		inactiveRatio := float64(inactive) / float64(n)
		meanCapital := capital.Div(decimal.NewFromInt(int64(n))).Round(2)
		_, qualShare := topShare(quals, n)
		city, cityShare := topShare(municipalities, n)

		var reasons []string
		score := 0
		add := func(points int, reason string) {
			if points > 0 {
				score += points
				reasons = append(reasons, reason)
			}
		}

		add(pointsAtLeast(p.Population, float64(n)),
			fmt.Sprintf("Sócio de %d empresas distintas", n))
		add(pointsAbove(p.Inactivity, inactiveRatio),
			fmt.Sprintf("%s das empresas inativas", pct(inactiveRatio)))
		add(pointsBelow(p.MeanCapital, meanCapital.InexactFloat64()),
			fmt.Sprintf("Capital social médio de R$ %s", meanCapital.StringFixed(2)))
		if qp := pointsAtLeast(p.Qualification, qualShare); qp > 0 {
			reason := fmt.Sprintf("Qualificação predominante em %s das participações", pct(qualShare))
			if qualShare >= 1 {
				reason = "Mesma qualificação em todas as participações"
			}
			add(qp, reason)
		}
		add(pointsAtLeast(p.Municipality, cityShare),
			fmt.Sprintf("%s das empresas no município %s", pct(cityShare), city))

		if score < p.MinScore {
			continue
		}
		score = min(score, 100)

		entitiesCopy := make([]string, n)
		copy(entitiesCopy, owned)
		findings = append(findings, model.FrontManFinding{
			PersonID:      person,
			Name:          h.names[person],
			EntityCount:   n,
			Entities:      entitiesCopy,
			InactiveRatio: inactiveRatio,
			MeanCapital:   meanCapital,
			Score:         score,
			Level:         valueobject.RiskLevelFromScore(score),
			Reasons:       reasons,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Score != findings[j].Score {
			return findings[i].Score > findings[j].Score
		}
		if findings[i].EntityCount != findings[j].EntityCount {
			return findings[i].EntityCount > findings[j].EntityCount
		}
		return findings[i].PersonID < findings[j].PersonID
	})
	return findings
}
