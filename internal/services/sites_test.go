package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sitecheck/internal/blob"
	"github.com/dmitrijs2005/sitecheck/internal/cloud"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteEnv(t *testing.T, replica *flakyReplica) (*env, *SiteService) {
	t.Helper()
	e := newEnv(t, replica)
	svc := NewSiteService(e.sites, e.syncer, e.bus, logging.Setup("error"))
	return e, svc
}

func TestSiteService_SaveMarksPending(t *testing.T) {
	e, svc := newSiteEnv(t, newFlakyReplica())
	ctx := context.Background()

	changed := e.bus.Subscribe(events.TopicSitesChanged)

	site := testSite()
	site.Synced = true // callers cannot sneak a record past the sweep
	require.NoError(t, svc.Save(ctx, site))

	got, err := svc.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.False(t, got.Synced)
	assert.Equal(t, "North Plant", got.Name)

	select {
	case <-changed:
	default:
		t.Fatal("expected a sites-changed event")
	}
}

func TestSiteService_GetMissing(t *testing.T) {
	_, svc := newSiteEnv(t, newFlakyReplica())

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSiteService_DeletePropagatesWhenOnline(t *testing.T) {
	replica := newFlakyReplica()
	e, svc := newSiteEnv(t, replica)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.Save(ctx, site))
	_, err := e.syncer.PushPending(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, site.ID))

	_, err = svc.Get(ctx, site.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	rows, err := replica.FetchAll(ctx, cloud.TableSites)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSiteService_DeleteOfflineIsLocalOnly(t *testing.T) {
	replica := newFlakyReplica()
	e, svc := newSiteEnv(t, replica)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.Save(ctx, site))
	_, err := e.syncer.PushPending(ctx)
	require.NoError(t, err)

	replica.offline = true
	require.NoError(t, svc.Delete(ctx, site.ID))

	// the remote copy survives and reappears on the next pull
	rows, err := replica.FetchAll(ctx, cloud.TableSites)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	replica.offline = false
	require.NoError(t, e.syncer.PullAuthoritative(ctx))

	got, err := svc.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

// fullSiteDB fails site inserts with the sqlite disk-full error.
type fullSiteDB struct {
	*sql.DB
}

func (q *fullSiteDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, "INSERT INTO sites") {
		return nil, fmt.Errorf("database or disk is full (13)")
	}
	return q.DB.ExecContext(ctx, query, args...)
}

func TestSiteService_SaveQuotaOnlinePushesDirect(t *testing.T) {
	replica := newFlakyReplica()
	db := setupDB(t)
	e := &env{
		sites:  store.NewSiteStore(&fullSiteDB{DB: db}),
		logs:   store.NewInspectionStore(db),
		drafts: store.NewDraftStore(db),
		blobs:  blob.NewMemoryStore(),
		bus:    events.NewBus(),
	}
	e.syncer = NewSyncService(replica, e.sites, e.logs, e.blobs, e.bus, logging.Setup("error"))
	svc := NewSiteService(e.sites, e.syncer, e.bus, logging.Setup("error"))
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, testSite()))
	assert.Equal(t, 1, replica.siteUpserts)
}

func TestSiteService_SaveQuotaOfflineFails(t *testing.T) {
	replica := newFlakyReplica()
	replica.offline = true
	db := setupDB(t)
	e := &env{
		sites:  store.NewSiteStore(&fullSiteDB{DB: db}),
		logs:   store.NewInspectionStore(db),
		drafts: store.NewDraftStore(db),
		blobs:  blob.NewMemoryStore(),
		bus:    events.NewBus(),
	}
	e.syncer = NewSyncService(replica, e.sites, e.logs, e.blobs, e.bus, logging.Setup("error"))
	svc := NewSiteService(e.sites, e.syncer, e.bus, logging.Setup("error"))

	err := svc.Save(context.Background(), testSite())
	assert.ErrorIs(t, err, common.ErrLocalPersistFailed)
}
