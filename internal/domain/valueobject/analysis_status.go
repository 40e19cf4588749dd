package valueobject

import "fmt"

// AnalysisStatus tells how complete an analysis was.
type AnalysisStatus struct {
	value string
}

var (
	// StatusComplete means every detector ran.
	StatusComplete = AnalysisStatus{value: "COMPLETO"}
	// StatusNoData means the subject has no related registry records.
	StatusNoData = AnalysisStatus{value: "SEM_DADOS"}
	// StatusDegraded means at least one detector failed and the conservative verdict was used.
	StatusDegraded = AnalysisStatus{value: "DEGRADADO"}
)

// AnalysisStatusFromString reconstructs a status from its string representation.
func AnalysisStatusFromString(s string) (AnalysisStatus, error) {
	switch s {
	case "COMPLETO":
		return StatusComplete, nil
	case "SEM_DADOS":
		return StatusNoData, nil
	case "DEGRADADO":
		return StatusDegraded, nil
	default:
		return AnalysisStatus{}, fmt.Errorf("invalid analysis status: %s", s)
	}
}

func (s AnalysisStatus) String() string { return s.value }

func (s AnalysisStatus) IsZero() bool { return s.value == "" }

func (s AnalysisStatus) MarshalText() ([]byte, error) { return []byte(s.value), nil }

func (s *AnalysisStatus) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = AnalysisStatus{}
		return nil
	}
	st, err := AnalysisStatusFromString(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
