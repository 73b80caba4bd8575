package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/blob"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/dmitrijs2005/sitecheck/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInspectionEnv(t *testing.T, replica *flakyReplica) (*env, *InspectionService) {
	t.Helper()
	e := newEnv(t, replica)
	svc := NewInspectionService(e.logs, e.drafts, e.blobs, e.syncer, e.bus, logging.Setup("error"))
	return e, svc
}

func testSite() *models.Site {
	return &models.Site{
		ID:   "s1",
		Name: "North Plant",
		Areas: []models.Area{
			{Name: "Warehouse", Points: []models.InspectionPoint{
				{ID: "p1", Name: "Extinguisher", Question: "Charged?", RequiresPhoto: true},
				{ID: "p2", Name: "Exit sign", Question: "Lit?"},
			}},
			{Name: "Office", Points: []models.InspectionPoint{
				{ID: "p3", Name: "Smoke detector", Question: "Green light?"},
			}},
		},
		Periodicity: models.PeriodicityQuarterly,
	}
}

func TestInspectionService_DraftRoundTrip(t *testing.T) {
	_, svc := newInspectionEnv(t, newFlakyReplica())
	ctx := context.Background()

	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	draft := &models.InspectionDraft{
		SiteID:        "s1",
		StepIndex:     2,
		InspectorName: "J. Ortiz",
		Answers: map[string]models.Answer{
			"p1": {PointID: "p1", Conform: true},
		},
	}
	require.NoError(t, svc.SaveDraft(ctx, draft))

	got, err := svc.GetDraft(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.StepIndex)
	assert.Equal(t, "J. Ortiz", got.InspectorName)
	assert.Equal(t, fixed, got.UpdatedAt.UTC())

	_, err = svc.GetDraft(ctx, "other")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInspectionService_DiscardDraftDeletesPhotos(t *testing.T) {
	e, svc := newInspectionEnv(t, newFlakyReplica())
	ctx := context.Background()

	require.NoError(t, e.blobs.Save(ctx, "photo1", []byte("jpeg")))
	require.NoError(t, svc.SaveDraft(ctx, &models.InspectionDraft{
		SiteID: "s1",
		Answers: map[string]models.Answer{
			"p1": {PointID: "p1", Photo: models.LocalPhoto("photo1")},
		},
	}))

	require.NoError(t, svc.DiscardDraft(ctx, "s1"))

	_, err := svc.GetDraft(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = e.blobs.Get(ctx, "photo1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// discarding a site with no draft is tolerated
	require.NoError(t, svc.DiscardDraft(ctx, "s1"))
}

func TestInspectionService_SavePhoto(t *testing.T) {
	e, svc := newInspectionEnv(t, newFlakyReplica())
	ctx := context.Background()

	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ref, err := svc.SavePhoto(ctx, "s1", "p1", []byte("jpegbytes"))
	require.NoError(t, err)

	id, ok := ref.BlobID()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("s1_p1_%d", fixed.UnixMilli()), id)

	got, err := e.blobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), got)
}

func TestInspectionService_LogFromDraftOrder(t *testing.T) {
	_, svc := newInspectionEnv(t, newFlakyReplica())

	site := testSite()
	draft := &models.InspectionDraft{
		SiteID:        site.ID,
		InspectorName: "J. Ortiz",
		InspectorRole: "Safety officer",
		Answers: map[string]models.Answer{
			"p3": {PointID: "p3", Conform: true},
			"p1": {PointID: "p1", Conform: false, Comment: "needs refill"},
		},
	}

	log := svc.LogFromDraft(site, draft)
	assert.NotEmpty(t, log.ID)
	assert.Equal(t, site.ID, log.SiteID)
	assert.Equal(t, site.Name, log.SiteName)
	assert.Equal(t, "J. Ortiz", log.InspectorName)
	assert.Equal(t, models.LogStatusCompleted, log.Status)

	// checklist order, not map order; unanswered p2 is absent
	require.Len(t, log.Answers, 2)
	assert.Equal(t, "p1", log.Answers[0].PointID)
	assert.Equal(t, "p3", log.Answers[1].PointID)
}

func TestInspectionService_CompleteOffline(t *testing.T) {
	replica := newFlakyReplica()
	replica.offline = true
	e, svc := newInspectionEnv(t, replica)
	ctx := context.Background()

	changed := e.bus.Subscribe(events.TopicInspectionsChanged)

	require.NoError(t, svc.SaveDraft(ctx, &models.InspectionDraft{SiteID: "s1"}))

	log := &models.InspectionLog{ID: "l1", SiteID: "s1", SiteName: "North Plant"}
	require.NoError(t, svc.Complete(ctx, log, []byte("%PDF-1.4")))

	got, err := e.logs.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, models.LogStatusCompleted, got.Status)
	assert.False(t, got.Synced)
	assert.Empty(t, got.PdfURL)

	// the draft is gone and the rendered report waits for the next sweep
	_, err = svc.GetDraft(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	pdf, err := e.blobs.Get(ctx, "report_l1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)

	select {
	case <-changed:
	default:
		t.Fatal("expected an inspections-changed event")
	}
}

func TestInspectionService_CompleteOnlineUploadsEverything(t *testing.T) {
	replica := newFlakyReplica()
	e, svc := newInspectionEnv(t, replica)
	ctx := context.Background()

	require.NoError(t, e.blobs.Save(ctx, "s1_p1_1", []byte("jpegbytes")))
	log := &models.InspectionLog{
		ID: "l1", SiteID: "s1", SiteName: "North Plant",
		Answers: []models.Answer{{PointID: "p1", Photo: models.LocalPhoto("s1_p1_1")}},
	}

	require.NoError(t, svc.Complete(ctx, log, []byte("%PDF-1.4")))

	got, err := e.logs.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.True(t, strings.HasPrefix(got.PdfURL, "memory://bucket/reports/"), got.PdfURL)

	url, ok := got.Answers[0].Photo.URL()
	require.True(t, ok)
	assert.Equal(t, "memory://bucket/reports/l1/p1.jpg", url)

	// local copies were reclaimed after their uploads
	_, err = e.blobs.Get(ctx, "s1_p1_1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = e.blobs.Get(ctx, "report_l1.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Equal(t, 1, replica.logUpserts)
}

// quotaDB wraps a live database and fails inspection inserts with the
// sqlite disk-full error until allowed writes run out.
type quotaDB struct {
	*sql.DB
}

func (q *quotaDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, "INSERT INTO inspections") {
		return nil, fmt.Errorf("database or disk is full (13)")
	}
	return q.DB.ExecContext(ctx, query, args...)
}

func TestInspectionService_CompleteQuotaOffline(t *testing.T) {
	replica := newFlakyReplica()
	replica.offline = true
	db := setupDB(t)
	e := &env{
		sites:  store.NewSiteStore(db),
		logs:   store.NewInspectionStore(&quotaDB{DB: db}),
		drafts: store.NewDraftStore(db),
		blobs:  blob.NewMemoryStore(),
		bus:    events.NewBus(),
	}
	e.syncer = NewSyncService(replica, e.sites, e.logs, e.blobs, e.bus, logging.Setup("error"))
	svc := NewInspectionService(e.logs, e.drafts, e.blobs, e.syncer, e.bus, logging.Setup("error"))

	err := svc.Complete(context.Background(), &models.InspectionLog{ID: "l1", SiteID: "s1"}, nil)
	assert.ErrorIs(t, err, common.ErrLocalPersistFailed)
}

func TestInspectionService_CompleteQuotaOnlinePushesDirect(t *testing.T) {
	replica := newFlakyReplica()
	db := setupDB(t)
	e := &env{
		sites:  store.NewSiteStore(db),
		logs:   store.NewInspectionStore(&quotaDB{DB: db}),
		drafts: store.NewDraftStore(db),
		blobs:  blob.NewMemoryStore(),
		bus:    events.NewBus(),
	}
	e.syncer = NewSyncService(replica, e.sites, e.logs, e.blobs, e.bus, logging.Setup("error"))
	svc := NewInspectionService(e.logs, e.drafts, e.blobs, e.syncer, e.bus, logging.Setup("error"))
	ctx := context.Background()

	require.NoError(t, svc.SaveDraft(ctx, &models.InspectionDraft{SiteID: "s1"}))

	log := &models.InspectionLog{ID: "l1", SiteID: "s1", SiteName: "North Plant"}
	require.NoError(t, svc.Complete(ctx, log, nil))

	// the record reached the cloud even though the local write failed
	assert.Equal(t, 1, replica.logUpserts)
	_, err := svc.GetDraft(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
