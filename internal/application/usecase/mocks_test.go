package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
	"github.com/bibbank/registry-risk/pkg/events"
)

// --- Mock implementations ---

type mockAssessmentRepository struct {
	mu           sync.Mutex
	saved        []*model.RiskAssessment
	saveFunc     func(ctx context.Context, a *model.RiskAssessment) error
	findByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*model.RiskAssessment, error)
}

func (m *mockAssessmentRepository) Save(ctx context.Context, a *model.RiskAssessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockAssessmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RiskAssessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockAssessmentRepository) FindBySubject(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*model.RiskAssessment, error) {
	return nil, nil
}

type mockEventPublisher struct {
	mu          sync.Mutex
	published   []events.DomainEvent
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.EventType())
	}
	return out
}

type mockRegistrySource struct {
	mu        sync.Mutex
	calls     int
	fetchFunc func(ctx context.Context, s model.Subject) (model.AnalysisInput, error)
}

func (m *mockRegistrySource) Fetch(ctx context.Context, s model.Subject) (model.AnalysisInput, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, s)
	}
	return model.AnalysisInput{}, nil
}

type mockMetrics struct {
	mu          sync.Mutex
	assessments []valueobject.AnalysisStatus
	failures    []string
}

func (m *mockMetrics) RecordAssessment(_ context.Context, _ valueobject.RiskLevel, status valueobject.AnalysisStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = append(m.assessments, status)
}

func (m *mockMetrics) RecordDetectorFailure(_ context.Context, detector string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, detector)
}

// --- Fixtures ---

func capital(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func entity(base, status string) model.EntityRecord {
	return model.EntityRecord{
		ID:           base + "000100",
		Name:         "EMPRESA " + base,
		Capital:      capital(50000),
		StatusCode:   status,
		SizeClass:    "03",
		State:        "SP",
		Municipality: "7107",
		ActivityCode: "4711301",
	}
}

// loopInput is a group of four companies, three inactive, where the target
// and its first subsidiary own each other. It scores 50 ALTO.
func loopInput(base string) model.AnalysisInput {
	target := entity(base, model.StatusActive)
	return model.AnalysisInput{
		Target: target,
		RelatedEntities: []model.EntityRecord{
			target,
			entity("22222222", "08"),
			entity("33333333", "08"),
			entity("44444444", "08"),
		},
		RelatedPartnerships: []model.PartnershipRecord{
			{OwnerID: base + "000100", OwnedEntityID: "22222222000100", Qualification: "22"},
			{OwnerID: "22222222000100", OwnedEntityID: base + "000100", Qualification: "22"},
			{OwnerID: "***123456**", OwnedEntityID: "33333333000100", Qualification: "49"},
		},
	}
}
