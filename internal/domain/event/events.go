package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/registry-risk/pkg/events"
)

const (
	// EventTypeRiskAssessed is emitted when an analysis finishes.
	EventTypeRiskAssessed = "registry_risk.assessment.completed"

	// EventTypeHighRiskDetected is emitted for ALTO and CRÍTICO verdicts.
	EventTypeHighRiskDetected = "registry_risk.high_risk.detected"

	// EventTypeCircularOwnershipDetected is emitted when the ownership graph has cycles.
	EventTypeCircularOwnershipDetected = "registry_risk.circular_ownership.detected"

	// AggregateType is the aggregate type carried by every event of this service.
	AggregateType = "RiskAssessment"
)

// RiskAssessed is published when a registry risk assessment has been completed.
type RiskAssessed struct {
	events.BaseEvent
	TenantID      uuid.UUID `json:"tenant_id"`
	SubjectID     string    `json:"subject_id"`
	SubjectKind   string    `json:"subject_kind"`
	Score         int       `json:"score"`
	Level         string    `json:"level"`
	SafeToProceed bool      `json:"safe_to_proceed"`
	Status        string    `json:"status"`
	Reasons       []string  `json:"reasons"`
}

// NewRiskAssessed builds a RiskAssessed event.
func NewRiskAssessed(
	assessmentID, tenantID uuid.UUID,
	subjectID, subjectKind string,
	score int, level string, safe bool, status string,
	reasons []string, at time.Time,
) RiskAssessed {
	return RiskAssessed{
		BaseEvent:     events.NewBaseEvent(EventTypeRiskAssessed, assessmentID, AggregateType, subjectID, at),
		TenantID:      tenantID,
		SubjectID:     subjectID,
		SubjectKind:   subjectKind,
		Score:         score,
		Level:         level,
		SafeToProceed: safe,
		Status:        status,
		Reasons:       reasons,
	}
}

// HighRiskDetected is published when a subject is assessed ALTO or CRÍTICO,
// so that compliance can open a manual review.
type HighRiskDetected struct {
	events.BaseEvent
	TenantID  uuid.UUID `json:"tenant_id"`
	SubjectID string    `json:"subject_id"`
	Score     int       `json:"score"`
	Level     string    `json:"level"`
	Reasons   []string  `json:"reasons"`
}

// NewHighRiskDetected builds a HighRiskDetected event.
func NewHighRiskDetected(assessmentID, tenantID uuid.UUID, subjectID string, score int, level string, reasons []string, at time.Time) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent: events.NewBaseEvent(EventTypeHighRiskDetected, assessmentID, AggregateType, subjectID, at),
		TenantID:  tenantID,
		SubjectID: subjectID,
		Score:     score,
		Level:     level,
		Reasons:   reasons,
	}
}

// CircularOwnershipDetected is published when ownership cycles were found
// around the subject.
type CircularOwnershipDetected struct {
	events.BaseEvent
	TenantID    uuid.UUID  `json:"tenant_id"`
	SubjectID   string     `json:"subject_id"`
	CycleCount  int        `json:"cycle_count"`
	WorstTier   string     `json:"worst_tier"`
	SampleCycle []string   `json:"sample_cycle,omitempty"`
	Components  [][]string `json:"components,omitempty"`
}

// NewCircularOwnershipDetected builds a CircularOwnershipDetected event.
func NewCircularOwnershipDetected(
	assessmentID, tenantID uuid.UUID,
	subjectID string, cycleCount int, worstTier string,
	sample []string, components [][]string, at time.Time,
) CircularOwnershipDetected {
	return CircularOwnershipDetected{
		BaseEvent:   events.NewBaseEvent(EventTypeCircularOwnershipDetected, assessmentID, AggregateType, subjectID, at),
		TenantID:    tenantID,
		SubjectID:   subjectID,
		CycleCount:  cycleCount,
		WorstTier:   worstTier,
		SampleCycle: sample,
		Components:  components,
	}
}
