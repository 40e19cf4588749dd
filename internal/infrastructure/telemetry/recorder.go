package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// Recorder implements port.MetricsRecorder on the OpenTelemetry metric API.
type Recorder struct {
	assessments metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewRecorder registers the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	assessments, err := meter.Int64Counter("registry_risk_assessments_total",
		metric.WithDescription("Completed risk assessments by level and status"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: assessments counter: %w", err)
	}
	failures, err := meter.Int64Counter("registry_risk_detector_failures_total",
		metric.WithDescription("Detector failures that forced a conservative verdict"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failures counter: %w", err)
	}
	duration, err := meter.Float64Histogram("registry_risk_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing one record snapshot"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5))
	if err != nil {
		return nil, fmt.Errorf("telemetry: duration histogram: %w", err)
	}
	return &Recorder{assessments: assessments, failures: failures, duration: duration}, nil
}

// RecordAssessment counts one assessment and its analysis latency.
func (r *Recorder) RecordAssessment(ctx context.Context, level valueobject.RiskLevel, status valueobject.AnalysisStatus, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("level", level.String()),
		attribute.String("status", status.String()),
	)
	r.assessments.Add(ctx, 1, attrs)
	r.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordDetectorFailure counts one failed detector.
func (r *Recorder) RecordDetectorFailure(ctx context.Context, detector string) {
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("detector", detector)))
}
