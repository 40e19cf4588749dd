package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// Fixed reason texts.
const (
	ReasonNoPattern = "Nenhum padrão de fraude detectado"
	ReasonNoData    = "Nenhuma empresa relacionada encontrada no cadastro; análise sem dados"
)

// FamilyResults carries the finished outputs of the three scored families.
type FamilyResults struct {
	FrontMen      []model.FrontManFinding
	Cycles        model.CycleAnalysis
	EconomicGroup model.EconomicGroupAnalysis
	Failures      []error
}

// reasonSet deduplicates reasons by key, keeping the first text seen.
type reasonSet struct {
	seen map[string]struct{}
	list []string
}

func (r *reasonSet) add(key, text string) {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.list = append(r.list, text)
}

// Aggregate combines the family results into one verdict. Any failure
// produces the conservative verdict instead of a partial score.
func Aggregate(r FamilyResults, p AggregatorParams) model.AggregatedRiskReport {
	if len(r.Failures) > 0 {
		return conservative(r.Failures, p)
	}

	var reasons reasonSet
	score := 0

	maxFrontMan := 0
	for _, f := range r.FrontMen {
		maxFrontMan = max(maxFrontMan, f.Score)
		reasons.add("front_man:"+f.PersonID, fmt.Sprintf(
			"Possível laranja %s: sócio de %d empresas (score %d, %s)",
			f.PersonID, f.EntityCount, f.Score, f.Level))
	}
	score += int(math.Round(float64(maxFrontMan) * p.FrontManWeight))

	if r.Cycles.HasCycles() {
		score += p.CyclePoints
		reasons.add("circular_ownership", fmt.Sprintf(
			"%d estrutura(s) circular(es) de participação societária", r.Cycles.TotalCycles))
	}

	group := r.EconomicGroup
	if group.EntityCount > 0 && group.ActiveRatio < p.MinActiveRatio {
		score += p.InactiveGroupPoints
		reasons.add("economic_group:active_ratio", fmt.Sprintf(
			"Grupo econômico com apenas %s de empresas ativas (%d de %d)",
			pct(group.ActiveRatio), group.ActiveCount, group.EntityCount))
	}

	score = max(0, min(score, 100))
	if len(reasons.list) == 0 {
		reasons.add("none", ReasonNoPattern)
	}

	level := valueobject.RiskLevelFromScore(score)
	return model.AggregatedRiskReport{
		Score:         score,
		Level:         level,
		SafeToProceed: level.SafeToProceed(),
		Status:        valueobject.StatusComplete,
		Reasons:       reasons.list,
	}
}

func conservative(failures []error, p AggregatorParams) model.AggregatedRiskReport {
	var reasons reasonSet
	msgs := make([]string, 0, len(failures))
	names := make([]string, 0, len(failures))
	for _, err := range failures {
		name := "unknown"
		var df *model.DetectorFailure
		if errors.As(err, &df) {
			name = df.Detector
		}
		reasons.add("failure:"+name, fmt.Sprintf(
			"Análise incompleta: falha no detector %s; resultado conservador aplicado", name))
		msgs = append(msgs, err.Error())
		names = append(names, name)
	}

	return model.AggregatedRiskReport{
		Score:         p.FallbackScore,
		Level:         valueobject.RiskLevelMedium,
		SafeToProceed: false,
		Status:        valueobject.StatusDegraded,
		Reasons:       reasons.list,
		Failures:      msgs,
		Failed:        names,
	}
}

// NoDataReport is the verdict for a subject without related registry records.
func NoDataReport() model.AggregatedRiskReport {
	return model.AggregatedRiskReport{
		Score:         0,
		Level:         valueobject.RiskLevelLow,
		SafeToProceed: true,
		Status:        valueobject.StatusNoData,
		Reasons:       []string{ReasonNoData},
	}
}
