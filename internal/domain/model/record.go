package model

import "github.com/shopspring/decimal"

// StatusActive is the registry status code for an active ("ATIVA") entity.
const StatusActive = "02"

// EntityRecord is one company row as supplied by the registry query collaborator.
// Optional fields are empty strings or a nil Capital when the registry omits them.
type EntityRecord struct {
	ID           string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	Capital      *decimal.Decimal `json:"capital,omitempty"`
	StatusCode   string           `json:"status_code,omitempty"`
	SizeClass    string           `json:"size_class,omitempty"`
	State        string           `json:"state,omitempty"`
	Municipality string           `json:"municipality,omitempty"`
	ActivityCode string           `json:"activity_code,omitempty"`
}

// BaseID returns the 8-digit base used as the node key.
func (r EntityRecord) BaseID() string {
	return CompanyBase(r.ID)
}

// CapitalValue returns the declared capital, treating an absent value as zero.
func (r EntityRecord) CapitalValue() decimal.Decimal {
	if r.Capital == nil {
		return decimal.Zero
	}
	return *r.Capital
}

// HasCapital reports whether a positive capital was declared.
func (r EntityRecord) HasCapital() bool {
	return r.Capital != nil && r.Capital.IsPositive()
}

// IsActive reports whether the registration status is active. A missing status
// counts as inactive.
func (r EntityRecord) IsActive() bool {
	return r.StatusCode == StatusActive
}

// PartnershipRecord links an owner (company or person) to an owned company.
type PartnershipRecord struct {
	OwnerID       string `json:"owner_id"`
	OwnerName     string `json:"owner_name,omitempty"`
	OwnedEntityID string `json:"owned_entity_id"`
	Qualification string `json:"qualification,omitempty"`
}

// OwnedBaseID returns the 8-digit base of the owned company.
func (r PartnershipRecord) OwnedBaseID() string {
	return CompanyBase(r.OwnedEntityID)
}

// AnalysisInput is the complete record set one analysis runs over.
type AnalysisInput struct {
	Target              EntityRecord        `json:"target"`
	RelatedEntities     []EntityRecord      `json:"related_entities"`
	RelatedPartnerships []PartnershipRecord `json:"related_partnerships"`
}

// IsEmpty reports the no-data condition.
func (in AnalysisInput) IsEmpty() bool {
	return len(in.RelatedEntities) == 0
}

// EntityIndex maps base ids to entity records. The target record takes
// precedence; otherwise the first occurrence wins.
func (in AnalysisInput) EntityIndex() map[string]EntityRecord {
	idx := make(map[string]EntityRecord, len(in.RelatedEntities)+1)
	for _, e := range in.RelatedEntities {
		id := e.BaseID()
		if id == "" {
			continue
		}
		if _, seen := idx[id]; !seen {
			idx[id] = e
		}
	}
	if id := in.Target.BaseID(); id != "" && len(id) == CNPJBaseLength {
		idx[id] = in.Target
	}
	return idx
}

// RelatedIDs lists the distinct related-entity base ids in first-seen order.
func (in AnalysisInput) RelatedIDs() []string {
	seen := make(map[string]struct{}, len(in.RelatedEntities))
	ids := make([]string, 0, len(in.RelatedEntities))
	for _, e := range in.RelatedEntities {
		id := e.BaseID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
