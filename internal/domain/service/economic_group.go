package service

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// Finding kinds of the economic-group analysis.
const (
	FindingStateDominance        = "GEO_STATE_DOMINANCE"
	FindingMunicipalityDominance = "GEO_MUNICIPALITY_DOMINANCE"
	FindingCapitalDominance      = "CAPITAL_DOMINANCE"
)

// AnalyzeEconomicGroup treats the related companies as one economic group and
// measures its activity rate and its geographic and capital concentration.
func AnalyzeEconomicGroup(in model.AnalysisInput, p EconomicGroupParams) model.EconomicGroupAnalysis {
	ids := in.RelatedIDs()
	if len(ids) == 0 {
		return model.EconomicGroupAnalysis{
			Status:       valueobject.StatusNoData,
			TotalCapital: decimal.Zero,
			States:       model.ConcentrationMetric{Label: "UF", Band: valueobject.BandInsufficientData},
			Municipality: model.ConcentrationMetric{Label: "Município", Band: valueobject.BandInsufficientData},
			Capital:      model.ConcentrationMetric{Label: "Capital", Scale: valueobject.ScaleAntitrust, Band: valueobject.BandInsufficientData},
		}
	}

	entities := in.EntityIndex()
	one := decimal.NewFromInt(1)
	states := make([]model.WeightedItem, 0, len(ids))
	cities := make([]model.WeightedItem, 0, len(ids))
	capital := make([]model.WeightedItem, 0, len(ids))

	out := model.EconomicGroupAnalysis{
		Status:       valueobject.StatusComplete,
		EntityCount:  len(ids),
		TotalCapital: decimal.Zero,
	}
	for _, id := range ids {
		e := entities[id]
		if e.IsActive() {
			out.ActiveCount++
		}
		out.TotalCapital = out.TotalCapital.Add(e.CapitalValue())
		states = append(states, model.WeightedItem{ID: id, Group: e.State, Weight: one})
		cities = append(cities, model.WeightedItem{ID: id, Group: e.Municipality, Weight: one})
		capital = append(capital, model.WeightedItem{ID: id, Weight: e.CapitalValue()})
	}
	out.ActiveRatio = float64(out.ActiveCount) / float64(out.EntityCount)

	out.States = Concentration(states, ConcentrationOptions{
		Label:          "UF",
		Scale:          valueobject.ScaleUnit,
		GroupBy:        true,
		DominanceShare: p.StateDominance,
		DominanceKind:  FindingStateDominance,
	})
	out.Municipality = Concentration(cities, ConcentrationOptions{
		Label:          "Município",
		Scale:          valueobject.ScaleUnit,
		GroupBy:        true,
		DominanceShare: p.MunicipalityDominance,
		DominanceKind:  FindingMunicipalityDominance,
	})
	out.Capital = Concentration(capital, ConcentrationOptions{
		Label:          "Capital",
		Scale:          valueobject.ScaleAntitrust,
		DominanceShare: p.CapitalDominance,
		DominanceKind:  FindingCapitalDominance,
	})

	for _, m := range []model.ConcentrationMetric{out.States, out.Municipality, out.Capital} {
		out.Findings = append(out.Findings, m.Findings...)
	}
	return out
}
