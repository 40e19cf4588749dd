package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/port"
	"github.com/bibbank/registry-risk/internal/domain/service"
)

var tracer trace.Tracer = otel.Tracer("github.com/bibbank/registry-risk/internal/application/usecase")

// CheckFraud is the use case for assessing one CNPJ or CPF.
type CheckFraud struct {
	source    port.RegistrySource
	analyzer  *service.Analyzer
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	metrics   port.MetricsRecorder
	logger    *slog.Logger
}

// NewCheckFraud creates a new CheckFraud use case. repo, publisher and
// metrics may be nil, in which case that step is skipped.
func NewCheckFraud(
	source port.RegistrySource,
	analyzer *service.Analyzer,
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	metrics port.MetricsRecorder,
	logger *slog.Logger,
) *CheckFraud {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckFraud{
		source:    source,
		analyzer:  analyzer,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute validates the identifier, fetches the registry snapshot, runs the
// analysis, then persists the assessment and publishes its events. Failures
// after the report exists are logged and never replace the report.
func (uc *CheckFraud) Execute(ctx context.Context, req dto.FraudCheckRequest) (dto.FraudCheckResponse, error) {
	ctx, span := tracer.Start(ctx, "CheckFraud")
	defer span.End()

	// 1. Validate the identifier.
	subject, err := model.ParseSubject(req.CNPJ, req.CPF)
	if err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return dto.FraudCheckResponse{}, err
	}
	span.SetAttributes(
		attribute.String("subject.kind", string(subject.Kind)),
		attribute.String("subject.id", subject.ID),
	)

	assessment, err := model.NewRiskAssessment(req.TenantID, subject)
	if err != nil {
		return dto.FraudCheckResponse{}, fmt.Errorf("failed to create assessment: %w", err)
	}

	// 2. Fetch the record snapshot.
	input, err := uc.source.Fetch(ctx, subject)
	if errors.Is(err, model.ErrNoData) {
		input, err = model.AnalysisInput{Target: model.EntityRecord{ID: subject.ID}}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry fetch failed")
		return dto.FraudCheckResponse{}, fmt.Errorf("failed to fetch registry records for %s: %w", subject, err)
	}

	// 3. Analyze.
	start := time.Now()
	report := uc.analyzer.Analyze(ctx, input)
	elapsed := time.Since(start)

	if uc.metrics != nil {
		uc.metrics.RecordAssessment(ctx, report.Level, report.Status, elapsed)
		for _, d := range report.Failed {
			uc.metrics.RecordDetectorFailure(ctx, d)
		}
	}

	if err := assessment.Complete(report); err != nil {
		return dto.FraudCheckResponse{}, fmt.Errorf("failed to complete assessment: %w", err)
	}

	uc.logger.Info("assessment completed",
		"assessment_id", assessment.ID(),
		"subject", subject.String(),
		"score", report.Score,
		"level", report.Level.String(),
		"status", report.Status.String(),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	// 4. Persist and publish.
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, assessment); err != nil {
			uc.logger.Error("failed to save assessment", "assessment_id", assessment.ID(), "error", err)
		}
	}
	evts := assessment.ClearEvents()
	if uc.publisher != nil && len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			uc.logger.Error("failed to publish events", "assessment_id", assessment.ID(), "error", err)
		}
	}

	return dto.FromModel(assessment, report.Failures, req.IncludeDetails), nil
}
