// Package cache keeps recently fetched registry snapshots in memory.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/domain/port"
	pkgkafka "github.com/bibbank/registry-risk/pkg/kafka"
)

var tracer = otel.Tracer("github.com/bibbank/registry-risk/internal/infrastructure/cache")

// RegistrySource decorates a port.RegistrySource with a size-bounded TTL
// cache. Concurrent fetches of the same subject share one upstream call.
// Every invalidation starts a new generation; a fetch that began in an
// earlier generation is returned to its callers but never cached.
type RegistrySource struct {
	next       port.RegistrySource
	lru        *expirable.LRU[string, model.AnalysisInput]
	group      singleflight.Group
	generation atomic.Uint64
	mu         sync.Mutex // orders cache writes against invalidations
	logger     *slog.Logger
}

// NewRegistrySource wraps next with a cache of size entries living ttl each.
func NewRegistrySource(next port.RegistrySource, size int, ttl time.Duration, logger *slog.Logger) *RegistrySource {
	if size < 1 {
		size = 1
	}
	return &RegistrySource{
		next:   next,
		lru:    expirable.NewLRU[string, model.AnalysisInput](size, nil, ttl),
		logger: logger,
	}
}

// Fetch returns the cached snapshot of subject or loads it from the wrapped
// source. Failures are not cached.
func (s *RegistrySource) Fetch(ctx context.Context, subject model.Subject) (model.AnalysisInput, error) {
	ctx, span := tracer.Start(ctx, "RegistrySource.Fetch")
	defer span.End()

	key := subject.String()
	if in, ok := s.lru.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return in, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// The shared call outlives any single caller; each caller still stops
	// waiting when its own context ends.
	gen := s.generation.Load()
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		in, err := s.next.Fetch(shared, subject)
		if err != nil {
			return model.AnalysisInput{}, err
		}
		s.mu.Lock()
		if s.generation.Load() == gen {
			s.lru.Add(key, in)
		}
		s.mu.Unlock()
		return in, nil
	})

	select {
	case <-ctx.Done():
		return model.AnalysisInput{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.AnalysisInput{}, res.Err
		}
		return res.Val.(model.AnalysisInput), nil
	}
}

// Len reports the number of cached snapshots.
func (s *RegistrySource) Len() int { return s.lru.Len() }

// Invalidate evicts every snapshot that mentions one of ids, given as
// company bases, CNPJs or person identifiers. It returns how many were evicted.
func (s *RegistrySource) Invalidate(ids ...string) int {
	wanted := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id, kind, ok := model.ClassifyOwner(raw)
		if !ok {
			id = model.CompanyBase(raw)
		}
		if id == "" {
			continue
		}
		wanted[id] = struct{}{}
		if kind == model.KindPerson {
			wanted[model.MaskCPF(id)] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)

	evicted := 0
	for _, key := range s.lru.Keys() {
		in, ok := s.lru.Peek(key)
		if !ok || !mentions(in, wanted) {
			continue
		}
		if s.lru.Remove(key) {
			evicted++
		}
	}
	return evicted
}

func mentions(in model.AnalysisInput, ids map[string]struct{}) bool {
	has := func(id string) bool {
		_, ok := ids[id]
		return ok
	}
	if has(in.Target.BaseID()) {
		return true
	}
	for _, e := range in.RelatedEntities {
		if has(e.BaseID()) {
			return true
		}
	}
	for _, p := range in.RelatedPartnerships {
		if owner, _, ok := model.ClassifyOwner(p.OwnerID); ok && has(owner) {
			return true
		}
		if has(p.OwnedBaseID()) {
			return true
		}
	}
	return false
}

// registryUpdate is the body of a registry-update message.
type registryUpdate struct {
	IDs []string `json:"ids"`
}

// InvalidationHandler consumes registry-update messages. The ids come from
// the JSON body or, without one, from the message key. Malformed messages are
// logged and acknowledged.
func (s *RegistrySource) InvalidationHandler() pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		ids, err := updatedIDs(msg)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping malformed registry update",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"error", err,
			)
			return nil
		}
		if n := s.Invalidate(ids...); n > 0 {
			s.logger.DebugContext(ctx, "registry snapshots invalidated", "ids", ids, "evicted", n)
		}
		return nil
	}
}

func updatedIDs(msg pkgkafka.Message) ([]string, error) {
	if len(msg.Value) > 0 {
		var u registryUpdate
		if err := json.Unmarshal(msg.Value, &u); err != nil {
			return nil, fmt.Errorf("decode registry update: %w", err)
		}
		if len(u.IDs) > 0 {
			return u.IDs, nil
		}
	}
	if len(msg.Key) > 0 {
		return []string{string(msg.Key)}, nil
	}
	return nil, fmt.Errorf("registry update names no ids")
}
