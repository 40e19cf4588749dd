package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestUserID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000010")
)

// Registry identifiers with valid check digits.
const (
	ValidCNPJ     = "11222333000181"
	ValidCNPJMask = "11.222.333/0001-81"
	ValidCNPJBase = "11222333"
	ValidCPF      = "52998224725"
	ValidCPFMask  = "529.982.247-25"
	MaskedCPF     = "***982247**"
	InvalidCNPJ   = "11222333000182"
	InvalidCPF    = "52998224726"
)

// FixedTime returns a stable timestamp for persisted-state fixtures.
func FixedTime() time.Time {
	return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
}
