package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE sites (
  id       TEXT PRIMARY KEY,
  data     TEXT NOT NULL,
  synced   INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL
);

CREATE TABLE inspections (
  id       TEXT PRIMARY KEY,
  data     TEXT NOT NULL,
  synced   INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL
);

CREATE TABLE drafts (
  site_id    TEXT PRIMARY KEY,
  data       TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestSiteStore_EmptyCollection(t *testing.T) {
	r := NewSiteStore(setupDB(t))

	got, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSiteStore_UpsertPreservesOrder(t *testing.T) {
	r := NewSiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s1", Name: "Plant A"}))
	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s2", Name: "Plant B"}))
	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s3", Name: "Plant C"}))

	// updating the first record must not move it
	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s1", Name: "Plant A renamed"}))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "Plant A renamed", got[0].Name)
	assert.Equal(t, "s2", got[1].ID)
	assert.Equal(t, "s3", got[2].ID)
}

func TestSiteStore_ReplaceAll(t *testing.T) {
	r := NewSiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "old"}))

	err := r.ReplaceAll(ctx, []models.Site{
		{ID: "a", Synced: true},
		{ID: "b"},
	})
	require.NoError(t, err)

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.True(t, got[0].Synced)
	assert.Equal(t, "b", got[1].ID)
	assert.False(t, got[1].Synced)
}

func TestSiteStore_PendingAndMarkSynced(t *testing.T) {
	r := NewSiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s1"}))
	require.NoError(t, r.Upsert(ctx, &models.Site{ID: "s2", Synced: true}))

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "s1", pending[0].ID)

	require.NoError(t, r.MarkSynced(ctx, "s1"))

	pending, err = r.GetPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// flag must be flipped inside the payload too
	got, err := r.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

func TestSiteStore_DeleteMissingIsNoop(t *testing.T) {
	r := NewSiteStore(setupDB(t))
	require.NoError(t, r.Delete(context.Background(), "ghost"))
}
