package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	require.NoError(t, err, msgAndArgs...)
}

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	require.Error(t, err)
	assert.Contains(t, err.Error(), expected)
}

// AssertScore checks a 0..100 risk score.
func AssertScore(t *testing.T, expected, actual int) {
	t.Helper()
	assert.GreaterOrEqual(t, actual, 0, "score below range")
	assert.LessOrEqual(t, actual, 100, "score above range")
	assert.Equal(t, expected, actual)
}

// AssertInDelta compares floating point metrics such as HHI or concentration ratios.
func AssertInDelta(t *testing.T, expected, actual float64) {
	t.Helper()
	assert.InDelta(t, expected, actual, 1e-9)
}
