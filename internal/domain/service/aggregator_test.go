package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/service"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

func withCycles(n int) model.CycleAnalysis {
	return model.CycleAnalysis{TotalCycles: n}
}

func group(active, total int) model.EconomicGroupAnalysis {
	return model.EconomicGroupAnalysis{
		EntityCount: total,
		ActiveCount: active,
		ActiveRatio: float64(active) / float64(total),
	}
}

func TestAggregate(t *testing.T) {
	p := service.DefaultParams().Aggregator

	tests := []struct {
		name    string
		in      service.FamilyResults
		score   int
		level   valueobject.RiskLevel
		safe    bool
		reasons int
	}{
		{
			name:    "nothing found",
			in:      service.FamilyResults{EconomicGroup: group(4, 4)},
			score:   0,
			level:   valueobject.RiskLevelLow,
			safe:    true,
			reasons: 1,
		},
		{
			name:    "cycles only",
			in:      service.FamilyResults{Cycles: withCycles(1), EconomicGroup: group(4, 4)},
			score:   30,
			level:   valueobject.RiskLevelMedium,
			safe:    true,
			reasons: 1,
		},
		{
			name:    "front-man weight rounds half away from zero",
			in:      service.FamilyResults{FrontMen: []model.FrontManFinding{{PersonID: personA, Score: 45}}},
			score:   23,
			level:   valueobject.RiskLevelLow,
			safe:    true,
			reasons: 1,
		},
		{
			name: "cycles and inactive group",
			in: service.FamilyResults{
				Cycles:        withCycles(3),
				EconomicGroup: group(1, 4),
			},
			score:   50,
			level:   valueobject.RiskLevelHigh,
			safe:    false,
			reasons: 2,
		},
		{
			name: "every family fires and the score is capped",
			in: service.FamilyResults{
				FrontMen: []model.FrontManFinding{
					{PersonID: personA, Score: 100},
					{PersonID: personB, Score: 60},
				},
				Cycles:        withCycles(2),
				EconomicGroup: group(0, 12),
			},
			score:   100,
			level:   valueobject.RiskLevelCritical,
			safe:    false,
			reasons: 4,
		},
		{
			name:    "active ratio exactly at the limit adds nothing",
			in:      service.FamilyResults{EconomicGroup: group(2, 4)},
			score:   0,
			level:   valueobject.RiskLevelLow,
			safe:    true,
			reasons: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := service.Aggregate(tt.in, p)

			assert.Equal(t, tt.score, r.Score)
			assert.Equal(t, tt.level, r.Level)
			assert.Equal(t, tt.safe, r.SafeToProceed)
			assert.Equal(t, valueobject.StatusComplete, r.Status)
			assert.Len(t, r.Reasons, tt.reasons)
			assert.Empty(t, r.Failures)
		})
	}
}

func TestAggregate_NoPatternReason(t *testing.T) {
	r := service.Aggregate(service.FamilyResults{}, service.DefaultParams().Aggregator)
	assert.Equal(t, []string{service.ReasonNoPattern}, r.Reasons)
}

func TestAggregate_ScoreBandsMatchSafety(t *testing.T) {
	p := service.DefaultParams().Aggregator
	for fm := 0; fm <= 100; fm += 5 {
		for _, cycles := range []int{0, 1} {
			for _, active := range []int{0, 4} {
				r := service.Aggregate(service.FamilyResults{
					FrontMen:      []model.FrontManFinding{{PersonID: personA, Score: fm}},
					Cycles:        withCycles(cycles),
					EconomicGroup: group(active, 4),
				}, p)

				require.GreaterOrEqual(t, r.Score, 0)
				require.LessOrEqual(t, r.Score, 100)
				assert.Equal(t, valueobject.RiskLevelFromScore(r.Score), r.Level)
				assert.Equal(t, r.Score < valueobject.HighCutoff, r.SafeToProceed)
				if r.Score >= valueobject.CriticalCutoff {
					assert.Equal(t, valueobject.RiskLevelCritical, r.Level)
				}
			}
		}
	}
}

func TestAggregate_DuplicateReasonsCollapse(t *testing.T) {
	r := service.Aggregate(service.FamilyResults{
		FrontMen: []model.FrontManFinding{
			{PersonID: personA, Score: 80, EntityCount: 9},
			{PersonID: personA, Score: 40, EntityCount: 4},
		},
	}, service.DefaultParams().Aggregator)

	assert.Equal(t, 40, r.Score)
	require.Len(t, r.Reasons, 1)
	assert.Contains(t, r.Reasons[0], "9 empresas")
}

func TestAggregate_FailureIsConservative(t *testing.T) {
	r := service.Aggregate(service.FamilyResults{
		FrontMen: []model.FrontManFinding{{PersonID: personA, Score: 100}},
		Cycles:   withCycles(5),
		Failures: []error{
			&model.DetectorFailure{Detector: service.DetectorCycles, Err: errors.New("boom")},
			errors.New("untyped"),
		},
	}, service.DefaultParams().Aggregator)

	assert.Equal(t, 50, r.Score)
	assert.Equal(t, valueobject.RiskLevelMedium, r.Level)
	assert.False(t, r.SafeToProceed)
	assert.Equal(t, valueobject.StatusDegraded, r.Status)
	require.Len(t, r.Reasons, 2)
	assert.Contains(t, r.Reasons[0], service.DetectorCycles)
	assert.Equal(t, []string{"detector circular_ownership failed: boom", "untyped"}, r.Failures)
	assert.Equal(t, []string{service.DetectorCycles, "unknown"}, r.Failed)
}

func TestNoDataReport(t *testing.T) {
	r := service.NoDataReport()

	assert.Zero(t, r.Score)
	assert.Equal(t, valueobject.RiskLevelLow, r.Level)
	assert.True(t, r.SafeToProceed)
	assert.Equal(t, valueobject.StatusNoData, r.Status)
	assert.Equal(t, []string{service.ReasonNoData}, r.Reasons)
}
