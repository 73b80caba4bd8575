package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/blob"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/dmitrijs2005/sitecheck/internal/store"
	"github.com/google/uuid"
)

// InspectionService owns the draft lifecycle and the completion of
// inspection runs.
type InspectionService struct {
	logs   *store.InspectionStore
	drafts *store.DraftStore
	blobs  blob.Store
	syncer *SyncService
	bus    *events.Bus
	log    logging.Logger
	now    func() time.Time
}

func NewInspectionService(logs *store.InspectionStore, drafts *store.DraftStore, blobs blob.Store,
	syncer *SyncService, bus *events.Bus, logger logging.Logger) *InspectionService {
	return &InspectionService{
		logs:   logs,
		drafts: drafts,
		blobs:  blobs,
		syncer: syncer,
		bus:    bus,
		log:    logger,
		now:    time.Now,
	}
}

// List returns every inspection log in order.
func (s *InspectionService) List(ctx context.Context) ([]models.InspectionLog, error) {
	return s.logs.GetAll(ctx)
}

// SaveDraft overwrites the site's single draft slot. Called on every step
// advance; debouncing is the caller's concern.
func (s *InspectionService) SaveDraft(ctx context.Context, draft *models.InspectionDraft) error {
	draft.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// GetDraft returns the site's draft or common.ErrNotFound.
func (s *InspectionService) GetDraft(ctx context.Context, siteID string) (*models.InspectionDraft, error) {
	return s.drafts.Get(ctx, siteID)
}

// DiscardDraft deletes the site's draft and the local photo payloads only
// that draft referenced.
func (s *InspectionService) DiscardDraft(ctx context.Context, siteID string) error {
	draft, err := s.drafts.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	for _, answer := range draft.Answers {
		if blobID, ok := answer.Photo.BlobID(); ok {
			if err := s.blobs.Delete(ctx, blobID); err != nil {
				s.log.Warn(ctx, "failed to delete draft photo", "blob", blobID, "error", err)
			}
		}
	}

	return s.drafts.Delete(ctx, siteID)
}

// SavePhoto stores a captured photo in the local blob store under a
// composite id and returns the local reference to embed in the answer.
func (s *InspectionService) SavePhoto(ctx context.Context, siteID, pointID string, payload []byte) (models.PhotoRef, error) {
	id := fmt.Sprintf("%s_%s_%d", siteID, pointID, s.now().UnixMilli())
	if err := s.blobs.Save(ctx, id, payload); err != nil {
		return models.PhotoRef{}, fmt.Errorf("failed to store photo: %w", err)
	}
	return models.LocalPhoto(id), nil
}

// LogFromDraft assembles a completed log from a finished draft, ordering the
// answers by the site's checklist order. Answers already carry the point,
// question and area names copied at answer time.
func (s *InspectionService) LogFromDraft(site *models.Site, draft *models.InspectionDraft) *models.InspectionLog {
	log := &models.InspectionLog{
		ID:            uuid.NewString(),
		SiteID:        site.ID,
		SiteName:      site.Name,
		Date:          s.now(),
		InspectorName: draft.InspectorName,
		InspectorRole: draft.InspectorRole,
		Status:        models.LogStatusCompleted,
	}
	for _, area := range site.Areas {
		for _, point := range area.Points {
			if answer, ok := draft.Answers[point.ID]; ok {
				log.Answers = append(log.Answers, answer)
			}
		}
	}
	return log
}

// Complete persists a finished inspection as completed-unsynced, deletes the
// site's draft, and when online immediately uploads photos, the rendered
// report and the metadata. The answers become immutable from here on.
//
// If the local write fails even after the quota fallback, the record is
// pushed straight to the cloud when online so the work is not silently
// lost; offline, common.ErrLocalPersistFailed is returned because no path
// to durability remains. A cloud rejection of the metadata upsert is
// returned to the caller while the log stays completed-unsynced locally,
// to be retried by a later PushPending sweep.
func (s *InspectionService) Complete(ctx context.Context, log *models.InspectionLog, pdf []byte) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Date.IsZero() {
		log.Date = s.now()
	}
	log.Status = models.LogStatusCompleted
	log.Synced = false

	if pdf != nil {
		// Cache the rendered report next to the photos so a later sweep
		// can still upload it if the immediate push below cannot run.
		if err := s.blobs.Save(ctx, reportBlobID(log.ID), pdf); err != nil {
			s.log.Warn(ctx, "failed to cache report locally", "inspection", log.ID, "error", err)
		}
	}

	if err := s.logs.Upsert(ctx, log); err != nil {
		if !errors.Is(err, common.ErrQuotaExceeded) {
			return fmt.Errorf("failed to save inspection: %w", err)
		}
		if !s.syncer.Online(ctx) {
			return fmt.Errorf("%w: %v", common.ErrLocalPersistFailed, err)
		}
		s.log.Warn(ctx, "local write failed, pushing straight to cloud", "inspection", log.ID, "error", err)
		if err := s.syncer.UploadLog(ctx, log, pdf); err != nil {
			return fmt.Errorf("%w: %v", common.ErrLocalPersistFailed, err)
		}
		if err := s.deleteDraft(ctx, log.SiteID); err != nil {
			return err
		}
		s.bus.Publish(events.TopicInspectionsChanged)
		return nil
	}

	if err := s.deleteDraft(ctx, log.SiteID); err != nil {
		return err
	}
	s.bus.Publish(events.TopicInspectionsChanged)

	if !s.syncer.Online(ctx) {
		return nil
	}
	return s.syncer.UploadLog(ctx, log, pdf)
}

func (s *InspectionService) deleteDraft(ctx context.Context, siteID string) error {
	if err := s.drafts.Delete(ctx, siteID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
