package service

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// DetectShells scores every related company for shell-company traits.
// Companies scoring below MinScore are omitted.
func DetectShells(in model.AnalysisInput, p ShellParams) []model.ShellFinding {
	entities := in.EntityIndex()
	h := indexHoldings(in.RelatedPartnerships)

	findings := make([]model.ShellFinding, 0)
	for _, id := range subjectCompanies(in) {
		e := entities[id]

		var reasons []string
		score := 0
		add := func(points int, reason string) {
			if points > 0 {
				score += points
				reasons = append(reasons, reason)
			}
		}

		if !e.HasCapital() {
			add(p.ZeroCapitalPoints, "Capital social zerado ou não informado")
		} else {
			add(pointsBelow(p.Capital, e.CapitalValue().InexactFloat64()),
				fmt.Sprintf("Capital social de R$ %s", e.CapitalValue().StringFixed(2)))
		}
		if !e.IsActive() {
			add(p.InactivePoints, "Situação cadastral não ativa")
		}
		if slices.Contains(p.SmallSizeClasses, e.SizeClass) {
			add(p.SizePoints, "Porte microempresa ou não informado")
		}

		partners := h.partners[id]
		if len(partners) == 1 {
			add(p.SinglePartnerPoints, "Sócio único no quadro societário")
		}
		for _, partner := range partners {
			others := len(h.owned[partner]) - 1
			if p.PartnerReach > 0 && others >= p.PartnerReach {
				add(p.PartnerReachPoints,
					fmt.Sprintf("Sócio %s participa de outras %d empresas relacionadas", partner, others))
				break
			}
		}

		activity := model.NormalizeID(e.ActivityCode)
		for _, prefix := range p.ActivityPrefixes {
			if activity != "" && strings.HasPrefix(activity, prefix) {
				add(p.ActivityPoints, fmt.Sprintf("Atividade principal %s típica de estruturas de fachada", e.ActivityCode))
				break
			}
		}

		if score < p.MinScore {
			continue
		}
		score = min(score, 100)
		findings = append(findings, model.ShellFinding{
			EntityID: id,
			Name:     e.Name,
			Score:    score,
			Level:    valueobject.RiskLevelFromScore(score),
			Reasons:  reasons,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Score != findings[j].Score {
			return findings[i].Score > findings[j].Score
		}
		return findings[i].EntityID < findings[j].EntityID
	})
	return findings
}

// subjectCompanies lists the target company (when it is one) followed by the
// related companies, without repeats.
func subjectCompanies(in model.AnalysisInput) []string {
	ids := in.RelatedIDs()
	target := rootID(in.Target)
	if len(target) == model.CNPJBaseLength && !slices.Contains(ids, target) {
		ids = append([]string{target}, ids...)
	}
	return ids
}
