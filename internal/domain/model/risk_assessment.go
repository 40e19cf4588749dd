package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/registry-risk/internal/domain/event"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
	"github.com/bibbank/registry-risk/pkg/events"
)

// RiskAssessment is the aggregate root recording one registry risk verdict.
type RiskAssessment struct {
	events.EventCollector

	assessedAt    time.Time
	createdAt     time.Time
	details       *RiskDetails
	subjectID     string
	subjectKind   EntityKind
	level         valueobject.RiskLevel
	status        valueobject.AnalysisStatus
	reasons       []string
	score         int
	cycleCount    int
	version       int
	safeToProceed bool
	tenantID      uuid.UUID
	id            uuid.UUID
}

// NewRiskAssessment creates an unscored assessment for subject.
func NewRiskAssessment(tenantID uuid.UUID, subject Subject) (*RiskAssessment, error) {
	if subject.ID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if subject.Kind != KindCompany && subject.Kind != KindPerson {
		return nil, fmt.Errorf("invalid subject kind %q", subject.Kind)
	}

	return &RiskAssessment{
		id:          uuid.New(),
		tenantID:    tenantID,
		subjectID:   subject.ID,
		subjectKind: subject.Kind,
		level:       valueobject.RiskLevelLow,
		reasons:     make([]string, 0),
		version:     1,
		createdAt:   time.Now().UTC(),
	}, nil
}

// Complete applies an aggregated report and records the resulting domain events.
func (a *RiskAssessment) Complete(report AggregatedRiskReport) error {
	if report.Score < 0 || report.Score > 100 {
		return fmt.Errorf("risk score must be between 0 and 100, got %d", report.Score)
	}
	if len(report.Reasons) == 0 {
		return fmt.Errorf("report has no reasons")
	}
	if report.Level.IsZero() {
		return fmt.Errorf("report has no risk level")
	}

	a.score = report.Score
	a.level = report.Level
	a.safeToProceed = report.SafeToProceed
	a.status = report.Status
	a.reasons = report.Reasons
	a.details = report.Details
	a.cycleCount = report.CycleCount()
	a.assessedAt = time.Now().UTC()
	a.version++

	a.Record(event.NewRiskAssessed(
		a.id, a.tenantID, a.subjectID, string(a.subjectKind),
		a.score, a.level.String(), a.safeToProceed, a.status.String(),
		a.reasons, a.assessedAt,
	))

	if !a.safeToProceed {
		a.Record(event.NewHighRiskDetected(
			a.id, a.tenantID, a.subjectID, a.score, a.level.String(), a.reasons, a.assessedAt,
		))
	}

	if a.cycleCount > 0 {
		circ := a.details.CircularOwnership
		worst := ""
		var sample []string
		if len(circ.Cycles) > 0 {
			worst = circ.Cycles[0].Tier.String()
			sample = circ.Cycles[0].Nodes
		}
		a.Record(event.NewCircularOwnershipDetected(
			a.id, a.tenantID, a.subjectID, a.cycleCount, worst, sample, circ.Components, a.assessedAt,
		))
	}

	return nil
}

// Reconstruct rebuilds a RiskAssessment from persisted data (no validation, no events).
func Reconstruct(
	id, tenantID uuid.UUID,
	subjectID string, subjectKind EntityKind,
	score int, level valueobject.RiskLevel, safeToProceed bool,
	status valueobject.AnalysisStatus,
	reasons []string, details *RiskDetails, cycleCount int,
	assessedAt time.Time, version int, createdAt time.Time,
) *RiskAssessment {
	return &RiskAssessment{
		id:            id,
		tenantID:      tenantID,
		subjectID:     subjectID,
		subjectKind:   subjectKind,
		score:         score,
		level:         level,
		safeToProceed: safeToProceed,
		status:        status,
		reasons:       reasons,
		details:       details,
		cycleCount:    cycleCount,
		assessedAt:    assessedAt,
		version:       version,
		createdAt:     createdAt,
	}
}

// --- Accessors ---

func (a *RiskAssessment) ID() uuid.UUID                      { return a.id }
func (a *RiskAssessment) TenantID() uuid.UUID                { return a.tenantID }
func (a *RiskAssessment) SubjectID() string                  { return a.subjectID }
func (a *RiskAssessment) SubjectKind() EntityKind            { return a.subjectKind }
func (a *RiskAssessment) Score() int                         { return a.score }
func (a *RiskAssessment) Level() valueobject.RiskLevel       { return a.level }
func (a *RiskAssessment) SafeToProceed() bool                { return a.safeToProceed }
func (a *RiskAssessment) Status() valueobject.AnalysisStatus { return a.status }
func (a *RiskAssessment) Reasons() []string                  { return a.reasons }
func (a *RiskAssessment) Details() *RiskDetails              { return a.details }
func (a *RiskAssessment) CycleCount() int                    { return a.cycleCount }
func (a *RiskAssessment) AssessedAt() time.Time              { return a.assessedAt }
func (a *RiskAssessment) Version() int                       { return a.version }
func (a *RiskAssessment) CreatedAt() time.Time               { return a.createdAt }

// Report rebuilds the aggregated report view of this assessment.
func (a *RiskAssessment) Report() AggregatedRiskReport {
	return AggregatedRiskReport{
		Score:         a.score,
		Level:         a.level,
		SafeToProceed: a.safeToProceed,
		Status:        a.status,
		Reasons:       a.reasons,
		Details:       a.details,
	}
}
