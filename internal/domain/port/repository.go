package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
	"github.com/bibbank/registry-risk/pkg/events"
)

// AssessmentRepository defines the persistence port for risk assessments.
type AssessmentRepository interface {
	// Save persists a new or updated assessment.
	Save(ctx context.Context, assessment *model.RiskAssessment) error

	// FindByID retrieves an assessment by its unique identifier. It returns
	// model.ErrNotFound when none exists.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RiskAssessment, error)

	// FindBySubject returns the most recent assessments of a subject, newest first.
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectID string, limit int) ([]*model.RiskAssessment, error)
}

// RegistrySource is the query collaborator that supplies the record set of
// one analysis. It either returns a complete snapshot or fails. An unknown
// subject is either an empty snapshot or an error matching model.ErrNoData;
// both yield the no-data verdict.
type RegistrySource interface {
	Fetch(ctx context.Context, subject model.Subject) (model.AnalysisInput, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// MetricsRecorder receives analysis measurements.
type MetricsRecorder interface {
	RecordAssessment(ctx context.Context, level valueobject.RiskLevel, status valueobject.AnalysisStatus, elapsed time.Duration)
	RecordDetectorFailure(ctx context.Context, detector string)
}
