package valueobject

import (
	"fmt"
	"strings"
)

// RiskLevel is an immutable value object representing the risk classification.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow      = RiskLevel{value: "BAIXO"}
	RiskLevelMedium   = RiskLevel{value: "MÉDIO"}
	RiskLevelHigh     = RiskLevel{value: "ALTO"}
	RiskLevelCritical = RiskLevel{value: "CRÍTICO"}
)

// Band cutoffs shared by the aggregator and the detectors.
const (
	CriticalCutoff = 70
	HighCutoff     = 50
	MediumCutoff   = 30
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
// Unaccented spellings are accepted.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BAIXO":
		return RiskLevelLow, nil
	case "MÉDIO", "MEDIO":
		return RiskLevelMedium, nil
	case "ALTO":
		return RiskLevelHigh, nil
	case "CRÍTICO", "CRITICO":
		return RiskLevelCritical, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %s", s)
	}
}

// RiskLevelFromScore derives the RiskLevel of a 0-100 score.
func RiskLevelFromScore(score int) RiskLevel {
	switch {
	case score >= CriticalCutoff:
		return RiskLevelCritical
	case score >= HighCutoff:
		return RiskLevelHigh
	case score >= MediumCutoff:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// Severity orders levels: BAIXO=1 .. CRÍTICO=4, zero for an unset level.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelCritical:
		return 4
	default:
		return 0
	}
}

// SafeToProceed is false for ALTO and CRÍTICO.
func (r RiskLevel) SafeToProceed() bool {
	return r.Severity() < RiskLevelHigh.Severity()
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = RiskLevel{}
		return nil
	}
	lvl, err := RiskLevelFromString(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// CycleTier classifies an ownership cycle by its length.
func CycleTier(length int) RiskLevel {
	switch {
	case length >= 4:
		return RiskLevelCritical
	case length == 3:
		return RiskLevelHigh
	case length == 2:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
