package model

import (
	"fmt"
	"strings"
)

// EntityKind distinguishes companies from natural persons in the ownership graph.
type EntityKind string

const (
	KindCompany EntityKind = "COMPANY"
	KindPerson  EntityKind = "PERSON"
)

// Identifier lengths used by the national registry.
const (
	CNPJLength     = 14
	CNPJBaseLength = 8
	CPFLength      = 11
)

var idReplacer = strings.NewReplacer(".", "", "-", "", "/", "", " ", "", "\t", "")

// NormalizeID strips the punctuation the registry and users put around identifiers.
func NormalizeID(raw string) string {
	return idReplacer.Replace(strings.TrimSpace(raw))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

func cnpjDigit(digits string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

// IsValidCNPJ validates the two check digits of a normalized 14-digit CNPJ.
func IsValidCNPJ(id string) bool {
	if len(id) != CNPJLength || !isDigits(id) || allSame(id) {
		return false
	}
	return cnpjDigit(id, cnpjWeights1) == id[12] && cnpjDigit(id, cnpjWeights2) == id[13]
}

func cpfDigit(digits string, n int) byte {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		r = 0
	}
	return byte('0' + r)
}

// IsValidCPF validates the two check digits of a normalized 11-digit CPF.
func IsValidCPF(id string) bool {
	if len(id) != CPFLength || !isDigits(id) || allSame(id) {
		return false
	}
	return cpfDigit(id, 9) == id[9] && cpfDigit(id, 10) == id[10]
}

// MaskCPF returns the masked form the registry publishes for partner CPFs
// (middle six digits kept).
func MaskCPF(cpf string) string {
	if len(cpf) != CPFLength {
		return cpf
	}
	return "***" + cpf[3:9] + "**"
}

// CompanyBase returns the 8-digit base of a company identifier. Identifiers that
// are already a base, or not company-shaped, are returned unchanged.
func CompanyBase(id string) string {
	id = NormalizeID(id)
	if len(id) == CNPJLength && isDigits(id) {
		return id[:CNPJBaseLength]
	}
	return id
}

func isPersonID(id string) bool {
	if len(id) != CPFLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && c != '*' {
			return false
		}
	}
	return true
}

// ClassifyOwner inspects the raw owner identifier of a partnership record.
// A 14-digit id is a company owner and is truncated to its base; an 11-character
// id (digits, possibly masked with '*') is a person kept as-is. ok is false for
// anything else.
func ClassifyOwner(raw string) (id string, kind EntityKind, ok bool) {
	id = NormalizeID(raw)
	switch {
	case len(id) == CNPJLength && isDigits(id):
		return id[:CNPJBaseLength], KindCompany, true
	case isPersonID(id):
		return id, KindPerson, true
	default:
		return id, "", false
	}
}

// Subject identifies who an analysis is about.
type Subject struct {
	// ID is the 8-digit company base or the 11-digit CPF.
	ID   string
	Kind EntityKind
	// Raw is the normalized identifier as received.
	Raw string
}

// ParseSubject validates a fraud-check request identifier. The CNPJ wins when
// both are supplied.
func ParseSubject(cnpj, cpf string) (Subject, error) {
	cnpj, cpf = NormalizeID(cnpj), NormalizeID(cpf)

	switch {
	case cnpj != "":
		switch {
		case len(cnpj) == CNPJBaseLength && isDigits(cnpj):
			return Subject{ID: cnpj, Kind: KindCompany, Raw: cnpj}, nil
		case IsValidCNPJ(cnpj):
			return Subject{ID: cnpj[:CNPJBaseLength], Kind: KindCompany, Raw: cnpj}, nil
		default:
			return Subject{}, NewInputError("cnpj", fmt.Sprintf("invalid CNPJ %q", cnpj))
		}
	case cpf != "":
		if !IsValidCPF(cpf) {
			return Subject{}, NewInputError("cpf", fmt.Sprintf("invalid CPF %q", cpf))
		}
		return Subject{ID: cpf, Kind: KindPerson, Raw: cpf}, nil
	default:
		return Subject{}, NewInputError("cnpj", "cnpj or cpf is required")
	}
}

// PersonKeys lists the identifiers under which a person subject may appear in
// partnership records.
func (s Subject) PersonKeys() []string {
	if s.Kind != KindPerson {
		return nil
	}
	return []string{s.ID, MaskCPF(s.ID)}
}

func (s Subject) String() string {
	return string(s.Kind) + ":" + s.ID
}
