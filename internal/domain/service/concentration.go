package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// UnknownGroup keys items whose grouping attribute is missing.
const UnknownGroup = "NAO_INFORMADO"

// ConcentrationOptions selects how a population is measured.
type ConcentrationOptions struct {
	Label string
	Scale valueobject.HHIScale
	// GroupBy aggregates weights by WeightedItem.Group instead of ID.
	GroupBy bool
	// DominanceShare emits a finding when one key holds more than this share.
	// Zero disables the check.
	DominanceShare float64
	DominanceKind  string
}

// Concentration computes HHI, CR4 and CR8 over items. Items without positive
// weight are ignored; when none remain the metric is marked insufficient.
func Concentration(items []model.WeightedItem, opts ConcentrationOptions) model.ConcentrationMetric {
	m := model.ConcentrationMetric{
		Label: opts.Label,
		Scale: opts.Scale,
		Band:  valueobject.BandInsufficientData,
	}

	weights := make(map[string]decimal.Decimal)
	var keys []string
	total := decimal.Zero
	for _, it := range items {
		if !it.Weight.IsPositive() {
			continue
		}
		key := it.ID
		if opts.GroupBy {
			key = it.Group
		}
		if key == "" {
			key = UnknownGroup
		}
		if _, ok := weights[key]; !ok {
			keys = append(keys, key)
		}
		weights[key] = weights[key].Add(it.Weight)
		total = total.Add(it.Weight)
	}
	if !total.IsPositive() {
		return m
	}

	shares := make([]model.Share, 0, len(keys))
	for _, k := range keys {
		shares = append(shares, model.Share{Key: k, Share: weights[k].Div(total).InexactFloat64()})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Key < shares[j].Key
	})

	var hhi float64
	for _, s := range shares {
		hhi += s.Share * s.Share
	}

	m.Sufficient = true
	m.ItemCount = len(shares)
	m.Shares = shares
	m.HHI = hhi * opts.Scale.Factor()
	m.CR4 = concentrationRatio(shares, 4)
	m.CR8 = concentrationRatio(shares, 8)
	m.Band = valueobject.BandFor(opts.Scale, m.HHI)
	m.TopKey = shares[0].Key
	m.TopShare = shares[0].Share

	if opts.DominanceShare > 0 && m.TopShare > opts.DominanceShare {
		m.Findings = append(m.Findings, model.RiskFinding{
			Kind:         opts.DominanceKind,
			Contribution: dominanceContribution(m.TopShare, opts.DominanceShare),
			Severity:     valueobject.RiskLevelHigh,
			Reason: fmt.Sprintf("%s: %s concentra %.0f%% do total (limite %.0f%%)",
				opts.Label, m.TopKey, m.TopShare*100, opts.DominanceShare*100),
			Detail: map[string]any{"key": m.TopKey, "share": m.TopShare},
		})
	}
	return m
}

// dominanceContribution maps the excess of share over limit onto
// 0..MaxContribution: just above the limit is near zero, a single key
// holding everything is the maximum.
func dominanceContribution(share, limit float64) int {
	if limit >= 1 {
		return 0
	}
	excess := (share - limit) / (1 - limit)
	return model.ClampContribution(int(math.Round(excess * model.MaxContribution)))
}

// concentrationRatio sums the top n shares in percent, zero with fewer than n items.
func concentrationRatio(shares []model.Share, n int) float64 {
	if len(shares) < n {
		return 0
	}
	var sum float64
	for _, s := range shares[:n] {
		sum += s.Share
	}
	return sum * 100
}
