package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/application/usecase"
	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/pkg/auth"
)

// Roles allowed to run checks and to read stored assessments.
var (
	checkRoles = []string{auth.RoleAdmin, auth.RoleAnalyst, auth.RoleAPIClient}
	readRoles  = []string{auth.RoleAdmin, auth.RoleAnalyst, auth.RoleAuditor, auth.RoleAPIClient}
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	checkFraud    *usecase.CheckFraud
	batchCheck    *usecase.BatchCheck
	getAssessment *usecase.GetAssessment
	authEnabled   bool
	logger        *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler. With authEnabled false,
// calls carry no claims and run under the nil tenant.
func NewRiskServiceHandler(
	checkFraud *usecase.CheckFraud,
	batchCheck *usecase.BatchCheck,
	getAssessment *usecase.GetAssessment,
	authEnabled bool,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		checkFraud:    checkFraud,
		batchCheck:    batchCheck,
		getAssessment: getAssessment,
		authEnabled:   authEnabled,
		logger:        logger,
	}
}

// Proto-aligned request/response message types.

// CheckMsg names one subject by CNPJ or CPF.
type CheckMsg struct {
	CNPJ string `json:"cnpj,omitempty"`
	CPF  string `json:"cpf,omitempty"`
}

// FraudCheckRequest represents the proto FraudCheckRequest message.
type FraudCheckRequest struct {
	CheckMsg
	IncludeDetails bool `json:"include_details"`
}

// ReportMsg represents the proto RiskReport message.
type ReportMsg struct {
	AssessmentID  string             `json:"assessment_id"`
	Subject       string             `json:"subject"`
	SubjectKind   string             `json:"subject_kind"`
	Score         int32              `json:"score"`
	Level         string             `json:"level"`
	SafeToProceed bool               `json:"safe_to_proceed"`
	Status        string             `json:"status"`
	Reasons       []string           `json:"reasons"`
	Failures      []string           `json:"failures,omitempty"`
	CycleCount    int32              `json:"cycle_count"`
	AssessedAt    string             `json:"assessed_at"`
	Details       *model.RiskDetails `json:"details,omitempty"`
}

// FraudCheckResponse represents the proto FraudCheckResponse message.
type FraudCheckResponse struct {
	Report *ReportMsg `json:"report"`
}

// BatchCheckRequest represents the proto BatchCheckRequest message.
type BatchCheckRequest struct {
	Checks         []CheckMsg `json:"checks"`
	IncludeDetails bool       `json:"include_details"`
}

// BatchItemMsg represents the proto BatchItem message.
type BatchItemMsg struct {
	Input  CheckMsg   `json:"input"`
	Report *ReportMsg `json:"report,omitempty"`
	Error  string     `json:"error,omitempty"`
	Code   string     `json:"code,omitempty"`
}

// BatchCheckResponse represents the proto BatchCheckResponse message.
type BatchCheckResponse struct {
	Results   []BatchItemMsg `json:"results"`
	Total     int32          `json:"total"`
	Succeeded int32          `json:"succeeded"`
	Failed    int32          `json:"failed"`
}

// GetAssessmentRequest represents the proto GetAssessmentRequest message.
type GetAssessmentRequest struct {
	ID string `json:"id"`
}

// GetAssessmentResponse represents the proto GetAssessmentResponse message.
type GetAssessmentResponse struct {
	Report *ReportMsg `json:"report"`
}

// FraudCheck handles a single-subject assessment.
func (h *RiskServiceHandler) FraudCheck(ctx context.Context, req *FraudCheckRequest) (*FraudCheckResponse, error) {
	tenantID, err := h.authorize(ctx, checkRoles...)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.checkFraud.Execute(ctx, dto.FraudCheckRequest{
		CheckInput:     dto.CheckInput{CNPJ: req.CNPJ, CPF: req.CPF},
		TenantID:       tenantID,
		IncludeDetails: req.IncludeDetails,
	})
	if err != nil {
		return nil, h.toStatus(err, "fraud check failed")
	}

	return &FraudCheckResponse{Report: toReportMsg(result)}, nil
}

// BatchCheck handles a multi-subject assessment.
func (h *RiskServiceHandler) BatchCheck(ctx context.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	tenantID, err := h.authorize(ctx, checkRoles...)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	checks := make([]dto.CheckInput, len(req.Checks))
	for i, c := range req.Checks {
		checks[i] = dto.CheckInput{CNPJ: c.CNPJ, CPF: c.CPF}
	}

	result, err := h.batchCheck.Execute(ctx, dto.BatchCheckRequest{
		Checks:         checks,
		TenantID:       tenantID,
		IncludeDetails: req.IncludeDetails,
	})
	if err != nil {
		return nil, h.toStatus(err, "batch check failed")
	}

	resp := &BatchCheckResponse{
		Results:   make([]BatchItemMsg, len(result.Results)),
		Total:     int32(result.Total),
		Succeeded: int32(result.Succeeded),
		Failed:    int32(result.Failed),
	}
	for i, item := range result.Results {
		msg := BatchItemMsg{
			Input: CheckMsg{CNPJ: item.Input.CNPJ, CPF: item.Input.CPF},
			Error: item.Error,
			Code:  item.Code,
		}
		if item.Result != nil {
			msg.Report = toReportMsg(*item.Result)
		}
		resp.Results[i] = msg
	}
	return resp, nil
}

// GetAssessment handles a get assessment request.
func (h *RiskServiceHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	tenantID, err := h.authorize(ctx, readRoles...)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	assessmentID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	result, err := h.getAssessment.Execute(ctx, dto.GetAssessmentRequest{
		TenantID:     tenantID,
		AssessmentID: assessmentID,
	})
	if err != nil {
		return nil, h.toStatus(err, "get assessment failed")
	}

	return &GetAssessmentResponse{Report: toReportMsg(result)}, nil
}

// authorize checks the caller's roles and returns its tenant.
func (h *RiskServiceHandler) authorize(ctx context.Context, roles ...string) (uuid.UUID, error) {
	if !h.authEnabled {
		return uuid.Nil, nil
	}
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if !claims.HasAnyRole(roles...) {
		return uuid.Nil, status.Error(codes.PermissionDenied, "insufficient permissions")
	}
	return claims.TenantID, nil
}

// toStatus maps use case errors to gRPC codes. Internal errors are logged
// and never reach the caller verbatim.
func (h *RiskServiceHandler) toStatus(err error, msg string) error {
	var inputErr *model.InputError
	switch {
	case errors.As(err, &inputErr):
		return status.Error(codes.InvalidArgument, inputErr.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "assessment not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	h.logger.Error(msg, slog.String("error", err.Error()))
	return status.Error(codes.Internal, "internal error")
}

func toReportMsg(r dto.FraudCheckResponse) *ReportMsg {
	return &ReportMsg{
		AssessmentID:  r.AssessmentID.String(),
		Subject:       r.Subject,
		SubjectKind:   r.SubjectKind,
		Score:         int32(r.Score),
		Level:         r.Level,
		SafeToProceed: r.SafeToProceed,
		Status:        r.Status,
		Reasons:       r.Reasons,
		Failures:      r.Failures,
		CycleCount:    int32(r.CycleCount),
		AssessedAt:    r.AssessedAt.UTC().Format(time.RFC3339),
		Details:       r.Details,
	}
}
