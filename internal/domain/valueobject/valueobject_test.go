package valueobject_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

func TestRiskLevelFromScore(t *testing.T) {
	tests := []struct {
		score    int
		expected valueobject.RiskLevel
	}{
		{0, valueobject.RiskLevelLow},
		{29, valueobject.RiskLevelLow},
		{30, valueobject.RiskLevelMedium},
		{49, valueobject.RiskLevelMedium},
		{50, valueobject.RiskLevelHigh},
		{69, valueobject.RiskLevelHigh},
		{70, valueobject.RiskLevelCritical},
		{100, valueobject.RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, valueobject.RiskLevelFromScore(tt.score))
		})
	}
}

func TestRiskLevel_FromString(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.RiskLevel
		wantErr  bool
	}{
		{input: "BAIXO", expected: valueobject.RiskLevelLow},
		{input: "MÉDIO", expected: valueobject.RiskLevelMedium},
		{input: "medio", expected: valueobject.RiskLevelMedium},
		{input: "ALTO", expected: valueobject.RiskLevelHigh},
		{input: "CRITICO", expected: valueobject.RiskLevelCritical},
		{input: "crítico", expected: valueobject.RiskLevelCritical},
		{input: "HIGH", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, err := valueobject.RiskLevelFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, lvl.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(lvl))
		})
	}
}

func TestRiskLevel_SafeToProceed(t *testing.T) {
	assert.True(t, valueobject.RiskLevelLow.SafeToProceed())
	assert.True(t, valueobject.RiskLevelMedium.SafeToProceed())
	assert.False(t, valueobject.RiskLevelHigh.SafeToProceed())
	assert.False(t, valueobject.RiskLevelCritical.SafeToProceed())
}

func TestRiskLevel_SeverityOrder(t *testing.T) {
	assert.Less(t, valueobject.RiskLevel{}.Severity(), valueobject.RiskLevelLow.Severity())
	assert.Less(t, valueobject.RiskLevelLow.Severity(), valueobject.RiskLevelMedium.Severity())
	assert.Less(t, valueobject.RiskLevelMedium.Severity(), valueobject.RiskLevelHigh.Severity())
	assert.Less(t, valueobject.RiskLevelHigh.Severity(), valueobject.RiskLevelCritical.Severity())
}

func TestCycleTier(t *testing.T) {
	assert.Equal(t, valueobject.RiskLevelLow, valueobject.CycleTier(1))
	assert.Equal(t, valueobject.RiskLevelMedium, valueobject.CycleTier(2))
	assert.Equal(t, valueobject.RiskLevelHigh, valueobject.CycleTier(3))
	assert.Equal(t, valueobject.RiskLevelCritical, valueobject.CycleTier(4))
	assert.Equal(t, valueobject.RiskLevelCritical, valueobject.CycleTier(9))
}

func TestRiskLevel_JSON(t *testing.T) {
	payload := struct {
		Level valueobject.RiskLevel `json:"level"`
	}{Level: valueobject.RiskLevelCritical}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"CRÍTICO"}`, string(data))

	payload.Level = valueobject.RiskLevel{}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"ALTO"}`), &payload))
	assert.Equal(t, valueobject.RiskLevelHigh, payload.Level)
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		name     string
		scale    valueobject.HHIScale
		hhi      float64
		expected valueobject.ConcentrationBand
	}{
		{"unit low", valueobject.ScaleUnit, 0.10, valueobject.BandLow},
		{"unit moderate lower bound", valueobject.ScaleUnit, 0.15, valueobject.BandModerate},
		{"unit moderate upper bound", valueobject.ScaleUnit, 0.25, valueobject.BandModerate},
		{"unit high", valueobject.ScaleUnit, 0.46, valueobject.BandHigh},
		{"antitrust low", valueobject.ScaleAntitrust, 1499, valueobject.BandLow},
		{"antitrust moderate", valueobject.ScaleAntitrust, 1500, valueobject.BandModerate},
		{"antitrust high", valueobject.ScaleAntitrust, 2501, valueobject.BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, valueobject.BandFor(tt.scale, tt.hhi))
		})
	}
}

func TestHHIScale(t *testing.T) {
	assert.Equal(t, 1.0, valueobject.ScaleUnit.Factor())
	assert.Equal(t, 10000.0, valueobject.ScaleAntitrust.Factor())

	var s valueobject.HHIScale
	require.NoError(t, s.UnmarshalText([]byte("ANTITRUSTE")))
	assert.Equal(t, valueobject.ScaleAntitrust, s)
	assert.Error(t, s.UnmarshalText([]byte("LOG")))
}

func TestAnalysisStatusFromString(t *testing.T) {
	for _, st := range []valueobject.AnalysisStatus{
		valueobject.StatusComplete, valueobject.StatusNoData, valueobject.StatusDegraded,
	} {
		got, err := valueobject.AnalysisStatusFromString(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := valueobject.AnalysisStatusFromString("OK")
	assert.Error(t, err)
}
