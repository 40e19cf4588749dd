package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
)

// Detector names used in failures, logs and metrics.
const (
	DetectorFrontMan      = "front_man"
	DetectorCycles        = "circular_ownership"
	DetectorHierarchy     = "hierarchy"
	DetectorEconomicGroup = "economic_group"
	DetectorShell         = "shell_company"
	DetectorLead          = "lead"
)

// Detectors bundles the implementations the Analyzer runs. Tests swap single
// entries to inject failures.
type Detectors struct {
	FrontMen      func(model.AnalysisInput, FrontManParams) []model.FrontManFinding
	Cycles        func(*model.OwnershipGraph, CycleParams) model.CycleAnalysis
	Hierarchy     func(*model.OwnershipGraph, string) model.HierarchyMap
	EconomicGroup func(model.AnalysisInput, EconomicGroupParams) model.EconomicGroupAnalysis
	Shells        func(model.AnalysisInput, ShellParams) []model.ShellFinding
	Leads         func(model.AnalysisInput, model.CycleAnalysis, []model.ShellFinding, []model.FrontManFinding, LeadParams) []model.Lead
}

// DefaultDetectors returns the production detectors.
func DefaultDetectors() Detectors {
	return Detectors{
		FrontMen:      DetectFrontMen,
		Cycles:        AnalyzeCycles,
		Hierarchy:     MapHierarchy,
		EconomicGroup: AnalyzeEconomicGroup,
		Shells:        DetectShells,
		Leads:         ScoreLeads,
	}
}

// Analyzer runs one complete analysis over a record snapshot.
type Analyzer struct {
	params    Params
	detectors Detectors
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDetectors replaces the detector implementations.
func WithDetectors(d Detectors) Option {
	return func(a *Analyzer) { a.detectors = d }
}

// WithTracer sets the tracer used for analysis spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Analyzer) { a.tracer = t }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(params Params, logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		params:    params,
		detectors: DefaultDetectors(),
		logger:    logger,
		tracer:    otel.Tracer("github.com/bibbank/registry-risk/internal/domain/service"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Params returns the thresholds in use.
func (a *Analyzer) Params() Params { return a.params }

// Analyze builds the ownership graph, runs the detector families concurrently
// and aggregates them. It never returns a failed analysis: detector errors and
// panics degrade to the conservative verdict.
func (a *Analyzer) Analyze(ctx context.Context, in model.AnalysisInput) model.AggregatedRiskReport {
	ctx, span := a.tracer.Start(ctx, "Analyze")
	defer span.End()

	if in.IsEmpty() {
		span.SetAttributes(attribute.String("status", valueobject.StatusNoData.String()))
		report := NoDataReport()
		report.Details = emptyDetails(rootID(in.Target))
		return report
	}

	build := BuildGraph(in)
	span.SetAttributes(
		attribute.Int("graph.nodes", build.Graph.NodeCount()),
		attribute.Int("graph.edges", build.Graph.EdgeCount()),
	)

	var (
		mu       sync.Mutex
		failures []error
		details  = model.RiskDetails{
			DataQuality: build.Issues,
			Graph:       model.GraphSummary{Nodes: build.Graph.NodeCount(), Edges: build.Graph.EdgeCount()},
		}
	)
	run := func(g *errgroup.Group, name string, fn func()) {
		g.Go(func() error {
			if err := a.guard(ctx, name, fn); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}

	g := new(errgroup.Group)
	run(g, DetectorFrontMan, func() {
		details.FrontMan = a.detectors.FrontMen(in, a.params.FrontMan)
	})
	run(g, DetectorCycles, func() {
		details.CircularOwnership = a.detectors.Cycles(build.Graph, a.params.Cycles)
	})
	run(g, DetectorHierarchy, func() {
		details.Hierarchy = a.detectors.Hierarchy(build.Graph, build.Root)
	})
	run(g, DetectorEconomicGroup, func() {
		details.EconomicGroup = a.detectors.EconomicGroup(in, a.params.EconomicGroup)
	})
	run(g, DetectorShell, func() {
		details.Shells = a.detectors.Shells(in, a.params.Shell)
	})
	_ = g.Wait()
	sort.Slice(failures, func(i, j int) bool { return failures[i].Error() < failures[j].Error() })

	if len(failures) == 0 {
		if err := a.guard(ctx, DetectorLead, func() {
			details.Leads = a.detectors.Leads(in, details.CircularOwnership, details.Shells, details.FrontMan, a.params.Lead)
		}); err != nil {
			failures = append(failures, err)
		}
	}

	report := Aggregate(FamilyResults{
		FrontMen:      details.FrontMan,
		Cycles:        details.CircularOwnership,
		EconomicGroup: details.EconomicGroup,
		Failures:      failures,
	}, a.params.Aggregator)
	report.Details = &details

	span.SetAttributes(
		attribute.Int("risk.score", report.Score),
		attribute.String("risk.level", report.Level.String()),
		attribute.String("status", report.Status.String()),
	)
	return report
}

// guard runs one detector under its own span, converting a panic into a
// DetectorFailure.
func (a *Analyzer) guard(ctx context.Context, name string, fn func()) (err error) {
	_, span := a.tracer.Start(ctx, "detector."+name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &model.DetectorFailure{Detector: name, Err: cause}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			a.logger.Warn("detector failed, using conservative verdict",
				"detector", name,
				"error", cause,
			)
		}
	}()

	fn()
	return nil
}

func emptyDetails(root string) *model.RiskDetails {
	return &model.RiskDetails{
		FrontMan: make([]model.FrontManFinding, 0),
		CircularOwnership: model.CycleAnalysis{
			Cycles:         make([]model.Cycle, 0),
			Components:     make([][]string, 0),
			Recommendation: recommendClean,
		},
		EconomicGroup: AnalyzeEconomicGroup(model.AnalysisInput{}, EconomicGroupParams{}),
		Hierarchy: model.HierarchyMap{
			Root:         root,
			Levels:       make(map[string]int),
			Holdings:     make([]model.HierarchyEntry, 0),
			Subsidiaries: make([]model.HierarchyEntry, 0),
		},
		Shells: make([]model.ShellFinding, 0),
		Leads:  make([]model.Lead, 0),
	}
}
