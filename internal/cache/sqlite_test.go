package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

func TestSQLiteStore_EmptyNamespace(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	templates, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	in := map[string]types.CachedTemplate{
		"greenhouse:application": {
			Key:       "greenhouse:application",
			Fields:    sampleShapes(),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			FailCount: 1,
		},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, out, "greenhouse:application")
	got := out["greenhouse:application"]
	assert.Equal(t, in["greenhouse:application"].Fields, got.Fields)
	assert.Equal(t, 1, got.FailCount)
	assert.True(t, in["greenhouse:application"].CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, map[string]types.CachedTemplate{
		"lever:application": {Key: "lever:application", CreatedAt: time.Now()},
	}))
	require.NoError(t, store.Save(ctx, map[string]types.CachedTemplate{}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteStore_BacksTemplateCache(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	c := New(store, nil, nil)

	c.Put(ctx, "greenhouse:application", sampleShapes())
	tmpl := c.Get(ctx, "greenhouse:application")
	require.NotNil(t, tmpl)
	assert.Equal(t, sampleShapes(), tmpl.Fields)

	c.IncrementFail(ctx, "greenhouse:application")
	tmpl = c.Get(ctx, "greenhouse:application")
	require.NotNil(t, tmpl)
	assert.Equal(t, 1, tmpl.FailCount)
}
