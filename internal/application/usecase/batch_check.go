package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/domain/model"
)

// MaxBatchSize caps the number of checks in one batch call.
const MaxBatchSize = 100

// BatchCheck runs CheckFraud over many subjects with bounded concurrency.
type BatchCheck struct {
	check       *CheckFraud
	concurrency int
	logger      *slog.Logger
}

// NewBatchCheck creates a new BatchCheck use case. A concurrency below one
// processes items sequentially.
func NewBatchCheck(check *CheckFraud, concurrency int, logger *slog.Logger) *BatchCheck {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchCheck{check: check, concurrency: concurrency, logger: logger}
}

// Execute assesses every entry. Oversized or empty batches are rejected
// before any work starts; otherwise a failing entry only fails itself and
// results keep the request order.
func (uc *BatchCheck) Execute(ctx context.Context, req dto.BatchCheckRequest) (dto.BatchCheckResponse, error) {
	switch n := len(req.Checks); {
	case n == 0:
		return dto.BatchCheckResponse{}, model.NewInputError("checks", "at least one check is required")
	case n > MaxBatchSize:
		return dto.BatchCheckResponse{}, model.NewInputError("checks",
			fmt.Sprintf("batch of %d exceeds the limit of %d", n, MaxBatchSize))
	}

	ctx, span := tracer.Start(ctx, "BatchCheck")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(req.Checks)))

	results := make([]dto.BatchItem, len(req.Checks))
	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)
	for i, in := range req.Checks {
		g.Go(func() error {
			results[i] = uc.item(ctx, i, in, req)
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.BatchCheckResponse{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Result != nil {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	span.SetAttributes(attribute.Int("batch.failed", resp.Failed))
	return resp, nil
}

func (uc *BatchCheck) item(ctx context.Context, i int, in dto.CheckInput, req dto.BatchCheckRequest) (out dto.BatchItem) {
	out.Input = in
	defer func() {
		if r := recover(); r != nil {
			out = uc.failed(in, &model.BatchItemError{Index: i, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if err := ctx.Err(); err != nil {
		return uc.failed(in, &model.BatchItemError{Index: i, Err: err})
	}

	res, err := uc.check.Execute(ctx, dto.FraudCheckRequest{
		CheckInput:     in,
		TenantID:       req.TenantID,
		IncludeDetails: req.IncludeDetails,
	})
	if err != nil {
		return uc.failed(in, &model.BatchItemError{Index: i, Err: err})
	}
	out.Result = &res
	return out
}

func (uc *BatchCheck) failed(in dto.CheckInput, err *model.BatchItemError) dto.BatchItem {
	if errors.Is(err, model.ErrInvalidInput) {
		return dto.BatchItem{Input: in, Error: err.Err.Error(), Code: dto.CodeInvalidInput}
	}
	uc.logger.Warn("batch item failed", "index", err.Index, "error", err)
	return dto.BatchItem{Input: in, Error: "internal error", Code: dto.CodeInternal}
}
