package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// ScoreLeads ranks related companies worth a closer look by combining cycle
// membership, shell traits and ownership by flagged front-men. The target
// itself is not a lead. Leads below MinScore are omitted.
func ScoreLeads(
	in model.AnalysisInput,
	cycles model.CycleAnalysis,
	shells []model.ShellFinding,
	frontMen []model.FrontManFinding,
	p LeadParams,
) []model.Lead {
	entities := in.EntityIndex()
	h := indexHoldings(in.RelatedPartnerships)
	target := rootID(in.Target)

	shellByID := make(map[string]model.ShellFinding, len(shells))
	for _, s := range shells {
		shellByID[s.EntityID] = s
	}
	flagged := make(map[string]model.FrontManFinding, len(frontMen))
	for _, f := range frontMen {
		flagged[f.PersonID] = f
	}

	leads := make([]model.Lead, 0)
	for _, id := range in.RelatedIDs() {
		if id == target {
			continue
		}

		var reasons []string
		score := 0

		if tier, ok := cycles.Membership[id]; ok {
			if pts := cyclePoints(tier, p); pts > 0 {
				score += pts
				reasons = append(reasons, fmt.Sprintf("Participa de estrutura circular de nível %s", tier))
			}
		}

		if s, ok := shellByID[id]; ok {
			if pts := int(math.Round(float64(s.Score) * p.ShellWeight)); pts > 0 {
				score += pts
				reasons = append(reasons, fmt.Sprintf("Indícios de empresa de fachada (score %d)", s.Score))
			}
		}

		var worst model.FrontManFinding
		for _, partner := range h.partners[id] {
			if f, ok := flagged[partner]; ok && f.Level.Severity() > worst.Level.Severity() {
				worst = f
			}
		}
		if pts := ownerPoints(worst.Level, p); pts > 0 {
			score += pts
			reasons = append(reasons, fmt.Sprintf("Controlada por possível laranja %s (%s)", worst.PersonID, worst.Level))
		}

		if score < p.MinScore {
			continue
		}
		score = min(score, 100)
		leads = append(leads, model.Lead{
			EntityID: id,
			Name:     entities[id].Name,
			Score:    score,
			Level:    valueobject.RiskLevelFromScore(score),
			Reasons:  reasons,
		})
	}

	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].Score != leads[j].Score {
			return leads[i].Score > leads[j].Score
		}
		return leads[i].EntityID < leads[j].EntityID
	})
	return leads
}

func cyclePoints(tier valueobject.RiskLevel, p LeadParams) int {
	switch tier {
	case valueobject.RiskLevelCritical:
		return p.CriticalCyclePoints
	case valueobject.RiskLevelHigh:
		return p.HighCyclePoints
	case valueobject.RiskLevelMedium:
		return p.MediumCyclePoints
	case valueobject.RiskLevelLow:
		return p.LowCyclePoints
	default:
		return 0
	}
}

func ownerPoints(level valueobject.RiskLevel, p LeadParams) int {
	switch level {
	case valueobject.RiskLevelCritical:
		return p.CriticalOwnerPoints
	case valueobject.RiskLevelHigh:
		return p.HighOwnerPoints
	case valueobject.RiskLevelMedium:
		return p.MediumOwnerPoints
	default:
		return 0
	}
}
