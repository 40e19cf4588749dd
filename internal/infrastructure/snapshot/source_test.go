package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/registry-risk/internal/domain/model"
	"github.com/bibbank/registry-risk/internal/infrastructure/snapshot"
	"github.com/bibbank/registry-risk/pkg/testutil"
)

// A and B own each other, a person holds A and C, C owns D.
const dataset = `{
  "entities": [
    {"id": "11111111000200", "name": "ALFA FILIAL", "status_code": "02"},
    {"id": "11111111000100", "name": "ALFA", "capital": "1000", "status_code": "02"},
    {"id": "22222222000100", "name": "BETA", "status_code": "08"},
    {"id": "33333333000100", "name": "GAMA", "capital": "500"},
    {"id": "44444444000100", "name": "DELTA", "capital": "0", "status_code": "02"}
  ],
  "partnerships": [
    {"owner_id": "11111111000100", "owned_entity_id": "22222222000100", "qualification": "22"},
    {"owner_id": "22222222000100", "owned_entity_id": "11111111000100", "qualification": "22"},
    {"owner_id": "***982247**", "owner_name": "FULANO", "owned_entity_id": "11111111000100", "qualification": "49"},
    {"owner_id": "***982247**", "owner_name": "FULANO", "owned_entity_id": "33333333000100", "qualification": "49"},
    {"owner_id": "33333333000100", "owned_entity_id": "44444444000100", "qualification": "22"}
  ]
}`

func source(t *testing.T, depth int) *snapshot.Source {
	t.Helper()
	ds, err := snapshot.Decode(strings.NewReader(dataset))
	require.NoError(t, err)
	return snapshot.New(ds, depth)
}

func bases(records []model.EntityRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.BaseID())
	}
	return out
}

func TestSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("one hop around a company", func(t *testing.T) {
		in, err := source(t, 1).Fetch(ctx, model.Subject{ID: "11111111", Kind: model.KindCompany, Raw: "11111111000200"})
		require.NoError(t, err)

		assert.Equal(t, "ALFA FILIAL", in.Target.Name)
		assert.Equal(t, []string{"11111111", "22222222", "33333333"}, bases(in.RelatedEntities))
		assert.Equal(t, "11111111000100", in.RelatedEntities[0].ID)
		assert.Len(t, in.RelatedPartnerships, 4)
		require.NotNil(t, in.RelatedEntities[0].Capital)
		assert.Equal(t, "1000", in.RelatedEntities[0].Capital.String())
		assert.Nil(t, in.RelatedEntities[1].Capital)
	})

	t.Run("two hops reach the company behind the partner", func(t *testing.T) {
		in, err := source(t, 2).Fetch(ctx, model.Subject{ID: "11111111", Kind: model.KindCompany, Raw: "11111111"})
		require.NoError(t, err)
		assert.Equal(t, []string{"11111111", "22222222", "33333333", "44444444"}, bases(in.RelatedEntities))
		assert.Len(t, in.RelatedPartnerships, 5)
	})

	t.Run("person found under the masked key", func(t *testing.T) {
		subject, err := model.ParseSubject("", testutil.ValidCPF)
		require.NoError(t, err)

		in, err := source(t, 1).Fetch(ctx, subject)
		require.NoError(t, err)

		assert.Equal(t, testutil.MaskedCPF, in.Target.ID)
		assert.Contains(t, bases(in.RelatedEntities), "11111111")
		assert.Contains(t, bases(in.RelatedEntities), "33333333")
	})

	t.Run("unknown company has no data", func(t *testing.T) {
		in, err := source(t, 2).Fetch(ctx, model.Subject{ID: "99999999", Kind: model.KindCompany})
		require.NoError(t, err)
		assert.True(t, in.IsEmpty())
		assert.Equal(t, "99999999", in.Target.ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := source(t, 2).Fetch(cctx, model.Subject{ID: "11111111", Kind: model.KindCompany})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "registry.json")
	require.NoError(t, os.WriteFile(good, []byte(dataset), 0o600))

	src, err := snapshot.Load(good, 2)
	require.NoError(t, err)
	assert.NotNil(t, src)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rows": []}`), 0o600))
	_, err = snapshot.Load(bad, 2)
	assert.ErrorContains(t, err, "decode dataset")

	_, err = snapshot.Load(filepath.Join(dir, "missing.json"), 2)
	assert.Error(t, err)
}
