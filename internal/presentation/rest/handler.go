package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/application/usecase"
	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/pkg/auth"
)

const maxBodyBytes = 1 << 20

var (
	checkRoles = []string{auth.RoleAdmin, auth.RoleAnalyst, auth.RoleAPIClient}
	readRoles  = []string{auth.RoleAdmin, auth.RoleAnalyst, auth.RoleAuditor, auth.RoleAPIClient}
)

// RiskHandler serves the fraud-check API over HTTP.
type RiskHandler struct {
	checkFraud    *usecase.CheckFraud
	batchCheck    *usecase.BatchCheck
	getAssessment *usecase.GetAssessment
	authEnabled   bool
	logger        *slog.Logger
}

// NewRiskHandler creates a new HTTP handler.
func NewRiskHandler(
	checkFraud *usecase.CheckFraud,
	batchCheck *usecase.BatchCheck,
	getAssessment *usecase.GetAssessment,
	authEnabled bool,
	logger *slog.Logger,
) *RiskHandler {
	return &RiskHandler{
		checkFraud:    checkFraud,
		batchCheck:    batchCheck,
		getAssessment: getAssessment,
		authEnabled:   authEnabled,
		logger:        logger,
	}
}

// RegisterRoutes registers the API endpoints on the provided ServeMux.
func (h *RiskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/fraud-check", h.FraudCheck)
	mux.HandleFunc("POST /api/v1/batch-check", h.BatchCheck)
	mux.HandleFunc("GET /api/v1/assessments/{id}", h.GetAssessment)
}

// checkRequest accepts both the snake_case and camelCase details flag.
type checkRequest struct {
	dto.CheckInput
	IncludeDetails      bool `json:"include_details"`
	IncludeDetailsCamel bool `json:"includeDetails"`
}

type batchRequest struct {
	Checks              []dto.CheckInput `json:"checks"`
	IncludeDetails      bool             `json:"include_details"`
	IncludeDetailsCamel bool             `json:"includeDetails"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FraudCheck handles POST /api/v1/fraud-check.
func (h *RiskHandler) FraudCheck(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.authorize(w, r, checkRoles)
	if !ok {
		return
	}

	var req checkRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.checkFraud.Execute(r.Context(), dto.FraudCheckRequest{
		CheckInput:     req.CheckInput,
		TenantID:       tenantID,
		IncludeDetails: req.IncludeDetails || req.IncludeDetailsCamel,
	})
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BatchCheck handles POST /api/v1/batch-check.
func (h *RiskHandler) BatchCheck(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.authorize(w, r, checkRoles)
	if !ok {
		return
	}

	var req batchRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.batchCheck.Execute(r.Context(), dto.BatchCheckRequest{
		Checks:         req.Checks,
		TenantID:       tenantID,
		IncludeDetails: req.IncludeDetails || req.IncludeDetailsCamel,
	})
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAssessment handles GET /api/v1/assessments/{id}.
func (h *RiskHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.authorize(w, r, readRoles)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment id", dto.CodeInvalidInput)
		return
	}

	resp, err := h.getAssessment.Execute(r.Context(), dto.GetAssessmentRequest{
		TenantID:     tenantID,
		AssessmentID: id,
	})
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RiskHandler) authorize(w http.ResponseWriter, r *http.Request, roles []string) (uuid.UUID, bool) {
	if !h.authEnabled {
		return uuid.Nil, true
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "UNAUTHENTICATED")
		return uuid.Nil, false
	}
	if !claims.HasAnyRole(roles...) {
		writeError(w, http.StatusForbidden, "insufficient permissions", "PERMISSION_DENIED")
		return uuid.Nil, false
	}
	return claims.TenantID, true
}

func (h *RiskHandler) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *model.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Error(), dto.CodeInvalidInput)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "assessment not found", "NOT_FOUND")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request canceled", "UNAVAILABLE")
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error", dto.CodeInternal)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body", dto.CodeInvalidInput)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
