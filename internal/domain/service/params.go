package service

import (
	"errors"
	"fmt"
)

// Tier awards Points when a measured value crosses Limit. How the comparison is
// made (at least, above, below) depends on the bucket using the table.
type Tier struct {
	Limit  float64 `yaml:"limit"`
	Points int     `yaml:"points"`
}

func pointsAtLeast(tiers []Tier, v float64) int {
	for _, t := range tiers {
		if v >= t.Limit {
			return t.Points
		}
	}
	return 0
}

func pointsAbove(tiers []Tier, v float64) int {
	for _, t := range tiers {
		if v > t.Limit {
			return t.Points
		}
	}
	return 0
}

func pointsBelow(tiers []Tier, v float64) int {
	for _, t := range tiers {
		if v < t.Limit {
			return t.Points
		}
	}
	return 0
}

// Params holds every threshold used by the analysis. It is passed explicitly
// to each component; nothing reads process-wide state.
type Params struct {
	Cycles        CycleParams         `yaml:"cycles"`
	FrontMan      FrontManParams      `yaml:"front_man"`
	Shell         ShellParams         `yaml:"shell"`
	Lead          LeadParams          `yaml:"lead"`
	EconomicGroup EconomicGroupParams `yaml:"economic_group"`
	Aggregator    AggregatorParams    `yaml:"aggregator"`
}

// CycleParams bounds cycle retention. Every cycle is still counted.
type CycleParams struct {
	MaxStored   int `yaml:"max_stored"`
	MaxReported int `yaml:"max_reported"`
}

// FrontManParams configures the front-man ("laranja") detector.
type FrontManParams struct {
	MinEntities   int    `yaml:"min_entities"`
	Population    []Tier `yaml:"population"`    // entity count, at least
	Inactivity    []Tier `yaml:"inactivity"`    // inactive ratio, above
	MeanCapital   []Tier `yaml:"mean_capital"`  // R$, below
	Qualification []Tier `yaml:"qualification"` // dominant qualification share, at least
	Municipality  []Tier `yaml:"municipality"`  // dominant municipality share, at least
	MinScore      int    `yaml:"min_score"`
}

// ShellParams configures the shell-company detector.
type ShellParams struct {
	ZeroCapitalPoints   int      `yaml:"zero_capital_points"`
	Capital             []Tier   `yaml:"capital"` // R$, below
	InactivePoints      int      `yaml:"inactive_points"`
	SmallSizeClasses    []string `yaml:"small_size_classes"`
	SizePoints          int      `yaml:"size_points"`
	SinglePartnerPoints int      `yaml:"single_partner_points"`
	PartnerReach        int      `yaml:"partner_reach"`
	PartnerReachPoints  int      `yaml:"partner_reach_points"`
	ActivityPrefixes    []string `yaml:"activity_prefixes"`
	ActivityPoints      int      `yaml:"activity_points"`
	MinScore            int      `yaml:"min_score"`
}

// LeadParams configures the lead scorer.
type LeadParams struct {
	CriticalCyclePoints int     `yaml:"critical_cycle_points"`
	HighCyclePoints     int     `yaml:"high_cycle_points"`
	MediumCyclePoints   int     `yaml:"medium_cycle_points"`
	LowCyclePoints      int     `yaml:"low_cycle_points"`
	ShellWeight         float64 `yaml:"shell_weight"`
	CriticalOwnerPoints int     `yaml:"critical_owner_points"`
	HighOwnerPoints     int     `yaml:"high_owner_points"`
	MediumOwnerPoints   int     `yaml:"medium_owner_points"`
	MinScore            int     `yaml:"min_score"`
}

// EconomicGroupParams configures the economic-group concentration findings.
type EconomicGroupParams struct {
	StateDominance        float64 `yaml:"state_dominance"`
	MunicipalityDominance float64 `yaml:"municipality_dominance"`
	CapitalDominance      float64 `yaml:"capital_dominance"`
}

// AggregatorParams configures how detector families become one score.
type AggregatorParams struct {
	FrontManWeight      float64 `yaml:"front_man_weight"`
	CyclePoints         int     `yaml:"cycle_points"`
	InactiveGroupPoints int     `yaml:"inactive_group_points"`
	MinActiveRatio      float64 `yaml:"min_active_ratio"`
	FallbackScore       int     `yaml:"fallback_score"`
}

// DefaultParams returns the production thresholds.
func DefaultParams() Params {
	return Params{
		Cycles: CycleParams{MaxStored: 50, MaxReported: 20},
		FrontMan: FrontManParams{
			MinEntities:   3,
			Population:    []Tier{{Limit: 10, Points: 20}, {Limit: 5, Points: 12}, {Limit: 0, Points: 5}},
			Inactivity:    []Tier{{Limit: 0.70, Points: 30}, {Limit: 0.50, Points: 20}, {Limit: 0.30, Points: 10}},
			MeanCapital:   []Tier{{Limit: 10000, Points: 20}, {Limit: 50000, Points: 10}},
			Qualification: []Tier{{Limit: 1.0, Points: 15}, {Limit: 0.80, Points: 8}},
			Municipality:  []Tier{{Limit: 0.80, Points: 15}, {Limit: 0.60, Points: 8}},
			MinScore:      30,
		},
		Shell: ShellParams{
			ZeroCapitalPoints:   30,
			Capital:             []Tier{{Limit: 1000, Points: 25}, {Limit: 10000, Points: 15}},
			InactivePoints:      20,
			SmallSizeClasses:    []string{"", "00", "01"},
			SizePoints:          10,
			SinglePartnerPoints: 15,
			PartnerReach:        5,
			PartnerReachPoints:  15,
			ActivityPrefixes:    []string{"6462", "6463", "6619", "7020", "8211", "8299"},
			ActivityPoints:      10,
			MinScore:            30,
		},
		Lead: LeadParams{
			CriticalCyclePoints: 40,
			HighCyclePoints:     40,
			MediumCyclePoints:   25,
			LowCyclePoints:      10,
			ShellWeight:         0.3,
			CriticalOwnerPoints: 30,
			HighOwnerPoints:     20,
			MediumOwnerPoints:   10,
			MinScore:            30,
		},
		EconomicGroup: EconomicGroupParams{
			StateDominance:        0.60,
			MunicipalityDominance: 0.60,
			CapitalDominance:      0.75,
		},
		Aggregator: AggregatorParams{
			FrontManWeight:      0.5,
			CyclePoints:         30,
			InactiveGroupPoints: 20,
			MinActiveRatio:      0.5,
			FallbackScore:       50,
		},
	}
}

func descending(name string, tiers []Tier) error {
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Limit > tiers[i-1].Limit {
			return fmt.Errorf("%s: tiers must be ordered by descending limit", name)
		}
	}
	return nil
}

func ascending(name string, tiers []Tier) error {
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Limit < tiers[i-1].Limit {
			return fmt.Errorf("%s: tiers must be ordered by ascending limit", name)
		}
	}
	return nil
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	var errs []error
	if p.Cycles.MaxStored < 1 || p.Cycles.MaxReported < 1 {
		errs = append(errs, errors.New("cycles: max_stored and max_reported must be positive"))
	}
	if p.Cycles.MaxReported > p.Cycles.MaxStored {
		errs = append(errs, errors.New("cycles: max_reported cannot exceed max_stored"))
	}
	if p.FrontMan.MinEntities < 1 {
		errs = append(errs, errors.New("front_man: min_entities must be positive"))
	}
	errs = append(errs,
		descending("front_man.population", p.FrontMan.Population),
		descending("front_man.inactivity", p.FrontMan.Inactivity),
		ascending("front_man.mean_capital", p.FrontMan.MeanCapital),
		descending("front_man.qualification", p.FrontMan.Qualification),
		descending("front_man.municipality", p.FrontMan.Municipality),
		ascending("shell.capital", p.Shell.Capital),
	)
	if p.Lead.ShellWeight < 0 || p.Lead.ShellWeight > 1 {
		errs = append(errs, errors.New("lead: shell_weight must be within [0,1]"))
	}
	if p.Aggregator.FrontManWeight < 0 || p.Aggregator.FrontManWeight > 1 {
		errs = append(errs, errors.New("aggregator: front_man_weight must be within [0,1]"))
	}
	if p.Aggregator.FallbackScore < 0 || p.Aggregator.FallbackScore > 100 {
		errs = append(errs, errors.New("aggregator: fallback_score must be within [0,100]"))
	}
	return errors.Join(errs...)
}
