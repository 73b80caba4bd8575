package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/cloud"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/dmitrijs2005/sitecheck/internal/store"
)

// SiteService owns the site collection: checklist configuration, reminder
// metadata and deletion.
type SiteService struct {
	sites  *store.SiteStore
	syncer *SyncService
	bus    *events.Bus
	log    logging.Logger
}

func NewSiteService(sites *store.SiteStore, syncer *SyncService, bus *events.Bus, logger logging.Logger) *SiteService {
	return &SiteService{sites: sites, syncer: syncer, bus: bus, log: logger}
}

// List returns every site in order.
func (s *SiteService) List(ctx context.Context) ([]models.Site, error) {
	return s.sites.GetAll(ctx)
}

// Get returns one site or common.ErrNotFound.
func (s *SiteService) Get(ctx context.Context, id string) (*models.Site, error) {
	return s.sites.GetByID(ctx, id)
}

// Save upserts a site locally as pending and leaves the upload to the next
// sync sweep. If the local write fails for quota the record is pushed
// straight to the cloud when online; offline the failure is fatal.
func (s *SiteService) Save(ctx context.Context, site *models.Site) error {
	site.Synced = false

	if err := s.sites.Upsert(ctx, site); err != nil {
		if !errors.Is(err, common.ErrQuotaExceeded) {
			return fmt.Errorf("failed to save site: %w", err)
		}
		if !s.syncer.Online(ctx) {
			return fmt.Errorf("%w: %v", common.ErrLocalPersistFailed, err)
		}
		s.log.Warn(ctx, "local write failed, pushing straight to cloud", "site", site.ID, "error", err)
		if err := s.syncer.UploadSite(ctx, site); err != nil {
			return fmt.Errorf("%w: %v", common.ErrLocalPersistFailed, err)
		}
		return nil
	}

	s.bus.Publish(events.TopicSitesChanged)
	return nil
}

// Delete removes a site locally and, when online, from the replica. An
// offline deletion does not propagate: the remote copy reappears on the
// next pull, matching the single-writer model documented on SyncService.
func (s *SiteService) Delete(ctx context.Context, id string) error {
	if err := s.sites.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.TopicSitesChanged)

	if s.syncer.Online(ctx) {
		if err := s.syncer.replica.DeleteRecord(ctx, cloud.TableSites, id); err != nil {
			s.log.Warn(ctx, "remote site delete failed", "site", id, "error", err)
		}
	}
	return nil
}
