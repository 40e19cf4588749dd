package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/domain/port"
)

// GetAssessment is the use case for retrieving an existing assessment.
type GetAssessment struct {
	repo port.AssessmentRepository
}

// NewGetAssessment creates a new GetAssessment use case.
func NewGetAssessment(repo port.AssessmentRepository) *GetAssessment {
	return &GetAssessment{repo: repo}
}

// Execute retrieves an assessment with its stored details.
func (uc *GetAssessment) Execute(ctx context.Context, req dto.GetAssessmentRequest) (dto.FraudCheckResponse, error) {
	assessment, err := uc.repo.FindByID(ctx, req.TenantID, req.AssessmentID)
	if err != nil {
		return dto.FraudCheckResponse{}, fmt.Errorf("failed to find assessment %s: %w", req.AssessmentID, err)
	}
	return dto.FromModel(assessment, nil, true), nil
}
