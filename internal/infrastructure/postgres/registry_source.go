package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
	pkgpg "github.com/bibbank/registry-risk/pkg/postgres"
)

// DefaultRelatedDepth is how many ownership hops around the subject are loaded.
const DefaultRelatedDepth = 2

// RegistrySource implements port.RegistrySource over the registry tables.
// Every fetch runs in one read-only snapshot so the record set is consistent.
type RegistrySource struct {
	pool  *pgxpool.Pool
	depth int
}

// NewRegistrySource creates a RegistrySource expanding depth hops around the
// subject. A depth below one uses DefaultRelatedDepth.
func NewRegistrySource(pool *pgxpool.Pool, depth int) *RegistrySource {
	if depth < 1 {
		depth = DefaultRelatedDepth
	}
	return &RegistrySource{pool: pool, depth: depth}
}

// Fetch loads the target and every company within depth ownership hops,
// together with the partnerships that point at them.
func (s *RegistrySource) Fetch(ctx context.Context, subject model.Subject) (model.AnalysisInput, error) {
	var in model.AnalysisInput
	err := pkgpg.WithSnapshot(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		in, err = s.fetch(ctx, tx, subject)
		return err
	})
	if err != nil {
		return model.AnalysisInput{}, fmt.Errorf("registry fetch %s: %w", subject, err)
	}
	return in, nil
}

func (s *RegistrySource) fetch(ctx context.Context, q pkgpg.Querier, subject model.Subject) (model.AnalysisInput, error) {
	var (
		in       model.AnalysisInput
		frontier []string
	)

	switch subject.Kind {
	case model.KindCompany:
		target, found, err := s.target(ctx, q, subject)
		if err != nil {
			return in, err
		}
		if !found {
			target = model.EntityRecord{ID: subject.ID}
		}
		in.Target = target
		frontier = []string{subject.ID}
	case model.KindPerson:
		key, bases, err := s.personHoldings(ctx, q, subject.PersonKeys())
		if err != nil {
			return in, err
		}
		in.Target = model.EntityRecord{ID: key}
		frontier = bases
	default:
		return in, fmt.Errorf("unsupported subject kind %q", subject.Kind)
	}

	bases, err := s.expand(ctx, q, frontier)
	if err != nil {
		return in, err
	}
	if len(bases) == 0 {
		return in, nil
	}

	if in.RelatedEntities, err = s.entities(ctx, q, bases); err != nil {
		return in, err
	}
	if in.RelatedPartnerships, err = s.partnerships(ctx, q, bases); err != nil {
		return in, err
	}
	return in, nil
}

// target prefers the exact establishment asked for, then the head office.
func (s *RegistrySource) target(ctx context.Context, q pkgpg.Querier, subject model.Subject) (model.EntityRecord, bool, error) {
	rows, err := q.Query(ctx, `
		SELECT `+entityColumns+`
		FROM registry_entities
		WHERE base = $1
		ORDER BY (id = $2) DESC, id
		LIMIT 1`,
		subject.ID, subject.Raw,
	)
	if err != nil {
		return model.EntityRecord{}, false, fmt.Errorf("query target: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanEntity)
	if err != nil {
		return model.EntityRecord{}, false, fmt.Errorf("scan target: %w", err)
	}
	if len(records) == 0 {
		return model.EntityRecord{}, false, nil
	}
	return records[0], true, nil
}

// personHoldings returns the key under which the person appears and the
// bases of the companies held under any of the keys.
func (s *RegistrySource) personHoldings(ctx context.Context, q pkgpg.Querier, keys []string) (string, []string, error) {
	rows, err := q.Query(ctx, `
		SELECT owner_id, owned_base
		FROM registry_partnerships
		WHERE owner_id = ANY($1)
		ORDER BY owner_id = $2 DESC, owned_base`,
		keys, keys[0],
	)
	if err != nil {
		return "", nil, fmt.Errorf("query person holdings: %w", err)
	}

	var (
		matched string
		bases   []string
		owner   string
		base    string
	)
	_, err = pgx.ForEachRow(rows, []any{&owner, &base}, func() error {
		if matched == "" {
			matched = owner
		}
		bases = append(bases, base)
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("scan person holdings: %w", err)
	}
	if matched == "" {
		matched = keys[0]
	}
	return matched, bases, nil
}

// expand walks ownership edges in both directions from frontier and returns
// every company base reached within the configured depth, frontier included.
func (s *RegistrySource) expand(ctx context.Context, q pkgpg.Querier, frontier []string) ([]string, error) {
	seen := make(map[string]struct{}, len(frontier))
	var all []string
	add := func(ids []string) []string {
		var fresh []string
		for _, id := range ids {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			fresh = append(fresh, id)
		}
		return fresh
	}

	next := add(frontier)
	for hop := 0; hop < s.depth && len(next) > 0; hop++ {
		rows, err := q.Query(ctx, `
			SELECT DISTINCT base FROM (
				SELECT p.owner_base AS base
				FROM registry_partnerships p
				WHERE p.owned_base = ANY($1) AND p.owner_base IS NOT NULL
				UNION
				SELECT p.owned_base
				FROM registry_partnerships p
				WHERE p.owner_base = ANY($1)
				UNION
				SELECT sib.owned_base
				FROM registry_partnerships p
				JOIN registry_partnerships sib ON sib.owner_id = p.owner_id
				WHERE p.owned_base = ANY($1) AND p.owner_base IS NULL
			) reached
			ORDER BY base`,
			next,
		)
		if err != nil {
			return nil, fmt.Errorf("expand hop %d: %w", hop+1, err)
		}
		reached, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("scan hop %d: %w", hop+1, err)
		}
		next = add(reached)
	}

	slices.Sort(all)
	return all, nil
}

const entityColumns = `id, name, capital, status_code, size_class, state, municipality, activity_code`

func scanEntity(row pgx.CollectableRow) (model.EntityRecord, error) {
	var (
		r       model.EntityRecord
		capital decimal.NullDecimal
	)
	err := row.Scan(&r.ID, &r.Name, &capital, &r.StatusCode, &r.SizeClass, &r.State, &r.Municipality, &r.ActivityCode)
	if err != nil {
		return r, err
	}
	if capital.Valid {
		v := capital.Decimal
		r.Capital = &v
	}
	return r, nil
}

// entities loads one record per base, the head office first.
func (s *RegistrySource) entities(ctx context.Context, q pkgpg.Querier, bases []string) ([]model.EntityRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (base) `+entityColumns+`
		FROM registry_entities
		WHERE base = ANY($1)
		ORDER BY base, id`,
		bases,
	)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanEntity)
	if err != nil {
		return nil, fmt.Errorf("scan entities: %w", err)
	}
	return records, nil
}

func (s *RegistrySource) partnerships(ctx context.Context, q pkgpg.Querier, bases []string) ([]model.PartnershipRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT owner_id, owner_name, owned_entity_id, qualification
		FROM registry_partnerships
		WHERE owned_base = ANY($1)
		ORDER BY id`,
		bases,
	)
	if err != nil {
		return nil, fmt.Errorf("query partnerships: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PartnershipRecord, error) {
		var p model.PartnershipRecord
		err := row.Scan(&p.OwnerID, &p.OwnerName, &p.OwnedEntityID, &p.Qualification)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan partnerships: %w", err)
	}
	return records, nil
}
