package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/valueobject"
	pkgpg "github.com/bibbank/registry-risk/pkg/postgres"
)

const assessmentColumns = `
	id, tenant_id, subject_id, subject_kind,
	risk_score, risk_level, safe_to_proceed, status,
	cycle_count, details, assessed_at, version, created_at`

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Save persists an assessment and its reasons in one transaction.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.RiskAssessment) error {
	details, err := encodeDetails(a.Details())
	if err != nil {
		return err
	}

	return pkgpg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO risk_assessments (`+assessmentColumns+`, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
			ON CONFLICT (id) DO UPDATE SET
				risk_score = EXCLUDED.risk_score,
				risk_level = EXCLUDED.risk_level,
				safe_to_proceed = EXCLUDED.safe_to_proceed,
				status = EXCLUDED.status,
				cycle_count = EXCLUDED.cycle_count,
				details = EXCLUDED.details,
				assessed_at = EXCLUDED.assessed_at,
				version = EXCLUDED.version,
				updated_at = now()`,
			a.ID(), a.TenantID(), a.SubjectID(), string(a.SubjectKind()),
			a.Score(), a.Level().String(), a.SafeToProceed(), a.Status().String(),
			a.CycleCount(), details, a.AssessedAt(), a.Version(), a.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM risk_reasons WHERE assessment_id = $1`, a.ID()); err != nil {
			return fmt.Errorf("failed to delete old risk reasons: %w", err)
		}

		batch := &pgx.Batch{}
		for i, reason := range a.Reasons() {
			batch.Queue(
				`INSERT INTO risk_reasons (assessment_id, tenant_id, position, reason) VALUES ($1, $2, $3, $4)`,
				a.ID(), a.TenantID(), i, reason,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save risk reasons: %w", err)
		}
		return nil
	})
}

// FindByID retrieves an assessment by its unique identifier.
func (r *AssessmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.RiskAssessment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM risk_assessments WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	a, err := scanAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadReasons(ctx, r.pool, a); err != nil {
		return nil, err
	}
	return a.build(), nil
}

// FindBySubject returns the newest assessments of a subject.
func (r *AssessmentRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectID string, limit int) ([]*model.RiskAssessment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE tenant_id = $1 AND subject_id = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		tenantID, subjectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}

	var scanned []*assessmentRow
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		scanned = append(scanned, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	out := make([]*model.RiskAssessment, 0, len(scanned))
	for _, a := range scanned {
		if err := r.loadReasons(ctx, r.pool, a); err != nil {
			return nil, err
		}
		out = append(out, a.build())
	}
	return out, nil
}

// assessmentRow is one risk_assessments row before its reasons are loaded.
type assessmentRow struct {
	id, tenantID uuid.UUID
	subjectID    string
	subjectKind  string
	score        int
	level        valueobject.RiskLevel
	safe         bool
	status       valueobject.AnalysisStatus
	cycleCount   int
	details      *model.RiskDetails
	assessedAt   time.Time
	version      int
	createdAt    time.Time
	reasons      []string
}

func (a *assessmentRow) build() *model.RiskAssessment {
	return model.Reconstruct(
		a.id, a.tenantID, a.subjectID, model.EntityKind(a.subjectKind),
		a.score, a.level, a.safe, a.status,
		a.reasons, a.details, a.cycleCount,
		a.assessedAt, a.version, a.createdAt,
	)
}

func scanAssessment(row pgx.Row) (*assessmentRow, error) {
	var (
		a          assessmentRow
		levelStr   string
		statusStr  string
		rawDetails []byte
		assessedAt *time.Time
	)
	err := row.Scan(
		&a.id, &a.tenantID, &a.subjectID, &a.subjectKind,
		&a.score, &levelStr, &a.safe, &statusStr,
		&a.cycleCount, &rawDetails, &assessedAt, &a.version, &a.createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if a.level, err = valueobject.RiskLevelFromString(levelStr); err != nil {
		return nil, fmt.Errorf("failed to parse risk level: %w", err)
	}
	if a.status, err = valueobject.AnalysisStatusFromString(statusStr); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	if a.details, err = decodeDetails(rawDetails); err != nil {
		return nil, err
	}
	if assessedAt != nil {
		a.assessedAt = *assessedAt
	}
	return &a, nil
}

func (r *AssessmentRepository) loadReasons(ctx context.Context, q pkgpg.Querier, a *assessmentRow) error {
	rows, err := q.Query(ctx,
		`SELECT reason FROM risk_reasons WHERE assessment_id = $1 ORDER BY position`, a.id)
	if err != nil {
		return fmt.Errorf("failed to query risk reasons: %w", err)
	}
	reasons, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan risk reasons: %w", err)
	}
	if reasons == nil {
		reasons = make([]string, 0)
	}
	a.reasons = reasons
	return nil
}

func encodeDetails(d *model.RiskDetails) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment details: %w", err)
	}
	return raw, nil
}

func decodeDetails(raw []byte) (*model.RiskDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var d model.RiskDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to decode assessment details: %w", err)
	}
	return &d, nil
}
