package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

// CheckInput identifies one subject. The CNPJ wins when both are set.
type CheckInput struct {
	CNPJ string `json:"cnpj,omitempty"`
	CPF  string `json:"cpf,omitempty"`
}

// FraudCheckRequest is the input DTO for the CheckFraud use case.
type FraudCheckRequest struct {
	CheckInput
	TenantID       uuid.UUID `json:"tenant_id"`
	IncludeDetails bool      `json:"include_details"`
}

// BatchCheckRequest is the input DTO for the BatchCheck use case.
type BatchCheckRequest struct {
	Checks         []CheckInput `json:"checks"`
	TenantID       uuid.UUID    `json:"tenant_id"`
	IncludeDetails bool         `json:"include_details"`
}

// GetAssessmentRequest is the input DTO for retrieving an assessment.
type GetAssessmentRequest struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// FraudCheckResponse is the output DTO of one assessment.
type FraudCheckResponse struct {
	AssessedAt    time.Time          `json:"assessed_at"`
	Details       *model.RiskDetails `json:"details,omitempty"`
	Subject       string             `json:"subject"`
	SubjectKind   string             `json:"subject_kind"`
	Level         string             `json:"level"`
	Status        string             `json:"status"`
	Reasons       []string           `json:"reasons"`
	Failures      []string           `json:"failures,omitempty"`
	Score         int                `json:"score"`
	CycleCount    int                `json:"cycle_count"`
	SafeToProceed bool               `json:"safe_to_proceed"`
	AssessmentID  uuid.UUID          `json:"assessment_id"`
}

// Error codes of failed batch items.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeInternal     = "INTERNAL"
)

// BatchItem is the outcome of one batch entry: exactly one of Result and
// Error is set.
type BatchItem struct {
	Input  CheckInput          `json:"input"`
	Result *FraudCheckResponse `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
	Code   string              `json:"code,omitempty"`
}

// BatchCheckResponse lists results in request order.
type BatchCheckResponse struct {
	Results   []BatchItem `json:"results"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// FromModel maps an assessment to the response DTO. Details are only
// carried when requested.
func FromModel(a *model.RiskAssessment, failures []string, includeDetails bool) FraudCheckResponse {
	resp := FraudCheckResponse{
		AssessmentID:  a.ID(),
		Subject:       a.SubjectID(),
		SubjectKind:   string(a.SubjectKind()),
		Score:         a.Score(),
		Level:         a.Level().String(),
		SafeToProceed: a.SafeToProceed(),
		Status:        a.Status().String(),
		Reasons:       a.Reasons(),
		Failures:      failures,
		CycleCount:    a.CycleCount(),
		AssessedAt:    a.AssessedAt(),
	}
	if includeDetails {
		resp.Details = a.Details()
	}
	return resp
}
