package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/infrastructure/cache"
	pkgkafka "github.com/bibbank/registry-risk/pkg/kafka"
	"github.com/bibbank/registry-risk/pkg/observability"
	"github.com/bibbank/registry-risk/pkg/testutil"
)

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingSource) Fetch(_ context.Context, subject model.Subject) (model.AnalysisInput, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return model.AnalysisInput{}, s.err
	}
	return model.AnalysisInput{
		Target: model.EntityRecord{ID: subject.ID + "000100"},
		RelatedEntities: []model.EntityRecord{
			{ID: subject.ID + "000100"},
			{ID: "55555555000100"},
		},
		RelatedPartnerships: []model.PartnershipRecord{
			{OwnerID: testutil.MaskedCPF, OwnedEntityID: "55555555000100"},
		},
	}, nil
}

func company(base string) model.Subject {
	return model.Subject{ID: base, Kind: model.KindCompany, Raw: base}
}

func newCache(next *countingSource) *cache.RegistrySource {
	return cache.NewRegistrySource(next, 8, time.Minute, observability.NopLogger())
}

func TestRegistrySource_CachesSuccessfulFetches(t *testing.T) {
	next := &countingSource{}
	c := newCache(next)
	ctx := context.Background()

	first, err := c.Fetch(ctx, company("11111111"))
	require.NoError(t, err)
	second, err := c.Fetch(ctx, company("11111111"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, next.calls.Load())

	_, err = c.Fetch(ctx, company("22222222"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestRegistrySource_DoesNotCacheErrors(t *testing.T) {
	next := &countingSource{err: errors.New("db down")}
	c := newCache(next)

	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), company("11111111"))
		assert.Error(t, err)
	}
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Zero(t, c.Len())
}

func TestRegistrySource_Expires(t *testing.T) {
	next := &countingSource{}
	c := cache.NewRegistrySource(next, 8, 20*time.Millisecond, observability.NopLogger())

	_, err := c.Fetch(context.Background(), company("11111111"))
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.Fetch(context.Background(), company("11111111"))
	require.NoError(t, err)

	assert.EqualValues(t, 2, next.calls.Load())
}

func TestRegistrySource_SharesConcurrentFetches(t *testing.T) {
	next := &countingSource{delay: 50 * time.Millisecond}
	c := newCache(next)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), company("11111111"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, next.calls.Load(), int32(10))
}

// gatedSource blocks every fetch until release is closed.
type gatedSource struct {
	countingSource
	entered chan struct{}
	release chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *gatedSource) Fetch(ctx context.Context, subject model.Subject) (model.AnalysisInput, error) {
	s.entered <- struct{}{}
	<-s.release
	if err := ctx.Err(); err != nil {
		return model.AnalysisInput{}, err
	}
	return s.countingSource.Fetch(ctx, subject)
}

func TestRegistrySource_InvalidationDuringFetchIsNotCached(t *testing.T) {
	next := newGatedSource()
	c := cache.NewRegistrySource(next, 8, time.Minute, observability.NopLogger())

	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background(), company("11111111"))
		done <- err
	}()
	<-next.entered

	assert.Equal(t, 0, c.Invalidate("11111111"))
	close(next.release)
	require.NoError(t, <-done)

	assert.Equal(t, 0, c.Len(), "a snapshot loaded before the invalidation must not be cached")

	_, err := c.Fetch(context.Background(), company("11111111"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestRegistrySource_CanceledCallerDoesNotFailOthers(t *testing.T) {
	next := newGatedSource()
	c := cache.NewRegistrySource(next, 8, time.Minute, observability.NopLogger())

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Fetch(firstCtx, company("11111111"))
		first <- err
	}()
	<-next.entered

	second := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background(), company("11111111"))
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(next.release)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond,
		"the shared fetch must complete after its first caller is canceled")
	require.NoError(t, <-second)
}

func TestRegistrySource_Invalidate(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		evicted int
	}{
		{name: "target base", ids: []string{"11111111"}, evicted: 1},
		{name: "formatted cnpj of a shared company", ids: []string{"55.555.555/0001-00"}, evicted: 2},
		{name: "unmasked cpf of a partner", ids: []string{testutil.ValidCPF}, evicted: 2},
		{name: "unrelated", ids: []string{"99999999"}, evicted: 0},
		{name: "nothing", ids: nil, evicted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(&countingSource{})
			for _, base := range []string{"11111111", "22222222"} {
				_, err := c.Fetch(context.Background(), company(base))
				require.NoError(t, err)
			}

			assert.Equal(t, tt.evicted, c.Invalidate(tt.ids...))
			assert.Equal(t, 2-tt.evicted, c.Len())
		})
	}
}

func TestRegistrySource_InvalidationHandler(t *testing.T) {
	tests := []struct {
		name string
		msg  pkgkafka.Message
		left int
	}{
		{name: "json body", msg: pkgkafka.Message{Value: []byte(`{"ids":["11111111"]}`)}, left: 1},
		{name: "key only", msg: pkgkafka.Message{Key: []byte("22222222000100")}, left: 1},
		{name: "malformed body is acknowledged", msg: pkgkafka.Message{Value: []byte("{")}, left: 2},
		{name: "empty message", msg: pkgkafka.Message{}, left: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(&countingSource{})
			for _, base := range []string{"11111111", "22222222"} {
				_, err := c.Fetch(context.Background(), company(base))
				require.NoError(t, err)
			}

			require.NoError(t, c.InvalidationHandler()(context.Background(), tt.msg))
			assert.Equal(t, tt.left, c.Len())
		})
	}
}
