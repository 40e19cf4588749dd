package valueobject

import "fmt"

// HHIScale selects how an HHI value is reported.
type HHIScale int

const (
	// ScaleUnit reports HHI in 0..1, used for geographic diversification.
	ScaleUnit HHIScale = iota
	// ScaleAntitrust reports HHI x 10,000, the market-structure convention.
	ScaleAntitrust
)

// Factor multiplies a 0..1 HHI into this scale.
func (s HHIScale) Factor() float64 {
	if s == ScaleAntitrust {
		return 10000
	}
	return 1
}

// Thresholds returns the (moderate, high) band cutoffs on this scale.
func (s HHIScale) Thresholds() (moderate, high float64) {
	if s == ScaleAntitrust {
		return 1500, 2500
	}
	return 0.15, 0.25
}

func (s HHIScale) String() string {
	if s == ScaleAntitrust {
		return "ANTITRUSTE"
	}
	return "UNITARIA"
}

func (s HHIScale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *HHIScale) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ANTITRUSTE":
		*s = ScaleAntitrust
	case "UNITARIA", "":
		*s = ScaleUnit
	default:
		return fmt.Errorf("invalid hhi scale: %s", b)
	}
	return nil
}

// ConcentrationBand classifies an HHI value.
type ConcentrationBand struct {
	value string
}

var (
	BandLow              = ConcentrationBand{value: "BAIXO"}
	BandModerate         = ConcentrationBand{value: "MODERADO"}
	BandHigh             = ConcentrationBand{value: "ALTO"}
	BandInsufficientData = ConcentrationBand{value: "DADOS_INSUFICIENTES"}
)

// BandFor classifies hhi on the given scale.
func BandFor(scale HHIScale, hhi float64) ConcentrationBand {
	moderate, high := scale.Thresholds()
	switch {
	case hhi > high:
		return BandHigh
	case hhi >= moderate:
		return BandModerate
	default:
		return BandLow
	}
}

// ConcentrationBandFromString reconstructs a band from its string representation.
func ConcentrationBandFromString(s string) (ConcentrationBand, error) {
	for _, b := range []ConcentrationBand{BandLow, BandModerate, BandHigh, BandInsufficientData} {
		if b.value == s {
			return b, nil
		}
	}
	return ConcentrationBand{}, fmt.Errorf("invalid concentration band: %s", s)
}

func (b ConcentrationBand) String() string { return b.value }

func (b ConcentrationBand) MarshalText() ([]byte, error) { return []byte(b.value), nil }

func (b *ConcentrationBand) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*b = ConcentrationBand{}
		return nil
	}
	band, err := ConcentrationBandFromString(string(text))
	if err != nil {
		return err
	}
	*b = band
	return nil
}
