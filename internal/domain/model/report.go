package model

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// DataQualityIssue records an input row the graph builder had to discard.
type DataQualityIssue struct {
	Kind   string `json:"kind"`
	Record int    `json:"record"`
	Value  string `json:"value,omitempty"`
	Detail string `json:"detail"`
}

// MaxContribution bounds RiskFinding.Contribution.
const MaxContribution = 100

// ClampContribution bounds c to 0..MaxContribution.
func ClampContribution(c int) int { return min(max(c, 0), MaxContribution) }

// RiskFinding is one weighted observation emitted by a detector. Contribution
// lies in 0..MaxContribution.
type RiskFinding struct {
	Kind         string                `json:"kind"`
	Contribution int                   `json:"contribution"`
	Severity     valueobject.RiskLevel `json:"severity"`
	Reason       string                `json:"reason"`
	Detail       map[string]any        `json:"detail,omitempty"`
}

// Reason is a keyed reason line. Reasons are deduplicated by Key, never by Text.
type Reason struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Cycle is a simple ownership cycle, listed from its smallest node id.
type Cycle struct {
	Nodes       []string              `json:"nodes"`
	Names       []string              `json:"names,omitempty"`
	Length      int                   `json:"length"`
	Tier        valueobject.RiskLevel `json:"tier"`
	Description string                `json:"description"`
}

// CycleAnalysis is the output of the cycle and component analyzer.
type CycleAnalysis struct {
	Cycles         []Cycle    `json:"cycles"`
	TotalCycles    int        `json:"total_cycles"`
	Truncated      bool       `json:"truncated"`
	Components     [][]string `json:"components"`
	ComponentCount int        `json:"component_count"`
	MeanLength     float64    `json:"mean_length"`
	Recommendation string     `json:"recommendation"`

	// Membership maps each node on some cycle to the worst tier among all
	// cycles through it, including cycles beyond the retention cap.
	Membership map[string]valueobject.RiskLevel `json:"-"`
}

// HasCycles reports whether any cycle was detected.
func (c CycleAnalysis) HasCycles() bool { return c.TotalCycles > 0 }

// HierarchyEntry is one leveled node.
type HierarchyEntry struct {
	ID    string     `json:"id"`
	Name  string     `json:"name,omitempty"`
	Kind  EntityKind `json:"kind"`
	Level int        `json:"level"`
}

// HierarchyMap assigns signed levels relative to Root.
type HierarchyMap struct {
	Root         string           `json:"root"`
	Levels       map[string]int   `json:"levels"`
	Holdings     []HierarchyEntry `json:"holdings"`
	Subsidiaries []HierarchyEntry `json:"subsidiaries"`
	Depth        int              `json:"depth"`
}

// Level returns the level of id and whether it is leveled.
func (h HierarchyMap) Level(id string) (int, bool) {
	l, ok := h.Levels[id]
	return l, ok
}

// WeightedItem is one member of a concentration population.
type WeightedItem struct {
	ID     string
	Group  string
	Weight decimal.Decimal
}

// Share is the market share of one item or group.
type Share struct {
	Key   string  `json:"key"`
	Share float64 `json:"share"`
}

// ConcentrationMetric holds HHI and concentration ratios over a population.
type ConcentrationMetric struct {
	Label      string                        `json:"label"`
	Scale      valueobject.HHIScale          `json:"scale"`
	HHI        float64                       `json:"hhi"`
	CR4        float64                       `json:"cr4"`
	CR8        float64                       `json:"cr8"`
	Band       valueobject.ConcentrationBand `json:"band"`
	ItemCount  int                           `json:"item_count"`
	TopKey     string                        `json:"top_key,omitempty"`
	TopShare   float64                       `json:"top_share"`
	Shares     []Share                       `json:"shares,omitempty"`
	Findings   []RiskFinding                 `json:"findings,omitempty"`
	Sufficient bool                          `json:"sufficient"`
}

// FrontManFinding is a person flagged as a possible front-man ("laranja").
type FrontManFinding struct {
	PersonID      string                `json:"person_id"`
	Name          string                `json:"name,omitempty"`
	EntityCount   int                   `json:"entity_count"`
	Entities      []string              `json:"entities"`
	InactiveRatio float64               `json:"inactive_ratio"`
	MeanCapital   decimal.Decimal       `json:"mean_capital"`
	Score         int                   `json:"score"`
	Level         valueobject.RiskLevel `json:"level"`
	Reasons       []string              `json:"reasons"`
}

// ShellFinding is a related company with shell-company traits.
type ShellFinding struct {
	EntityID string                `json:"entity_id"`
	Name     string                `json:"name,omitempty"`
	Score    int                   `json:"score"`
	Level    valueobject.RiskLevel `json:"level"`
	Reasons  []string              `json:"reasons"`
}

// Lead is an investigation lead combining graph and detector outputs.
type Lead struct {
	EntityID string                `json:"entity_id"`
	Name     string                `json:"name,omitempty"`
	Score    int                   `json:"score"`
	Level    valueobject.RiskLevel `json:"level"`
	Reasons  []string              `json:"reasons"`
}

// EconomicGroupAnalysis summarizes the related entities as one economic group.
type EconomicGroupAnalysis struct {
	Status       valueobject.AnalysisStatus `json:"status"`
	EntityCount  int                        `json:"entity_count"`
	ActiveCount  int                        `json:"active_count"`
	ActiveRatio  float64                    `json:"active_ratio"`
	TotalCapital decimal.Decimal            `json:"total_capital"`
	States       ConcentrationMetric        `json:"states"`
	Municipality ConcentrationMetric        `json:"municipalities"`
	Capital      ConcentrationMetric        `json:"capital"`
	Findings     []RiskFinding              `json:"findings,omitempty"`
}

// RiskDetails carries the per-detector payloads of a report.
type RiskDetails struct {
	FrontMan          []FrontManFinding     `json:"front_man"`
	CircularOwnership CycleAnalysis         `json:"circular_ownership"`
	EconomicGroup     EconomicGroupAnalysis `json:"economic_group"`
	Hierarchy         HierarchyMap          `json:"hierarchy"`
	Shells            []ShellFinding        `json:"shells"`
	Leads             []Lead                `json:"leads"`
	DataQuality       []DataQualityIssue    `json:"data_quality,omitempty"`
	Graph             GraphSummary          `json:"graph"`
}

// GraphSummary describes the size of the analyzed graph.
type GraphSummary struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// AggregatedRiskReport is the final verdict of an analysis.
type AggregatedRiskReport struct {
	Score         int                        `json:"score"`
	Level         valueobject.RiskLevel      `json:"level"`
	SafeToProceed bool                       `json:"safe_to_proceed"`
	Status        valueobject.AnalysisStatus `json:"status"`
	Reasons       []string                   `json:"reasons"`
	Failures      []string                   `json:"failures,omitempty"`
	Failed        []string                   `json:"failed_detectors,omitempty"`
	Details       *RiskDetails               `json:"details,omitempty"`
}

// CycleCount returns the number of detected cycles, zero without details.
func (r AggregatedRiskReport) CycleCount() int {
	if r.Details == nil {
		return 0
	}
	return r.Details.CircularOwnership.TotalCycles
}
