// Package services wires the local record store, the photo blob store and
// the cloud replica into the site, inspection and synchronization services
// consumed by presentation collaborators.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/blob"
	"github.com/dmitrijs2005/sitecheck/internal/cloud"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/dmitrijs2005/sitecheck/internal/store"
)

// SyncService reconciles local and remote state. It assumes a single active
// writer per site: two devices editing the same record while offline are not
// reconciled: the last successful push overwrites the other's cloud copy
// with no conflict detection.
type SyncService struct {
	replica cloud.Replica // nil when unconfigured
	sites   *store.SiteStore
	logs    *store.InspectionStore
	blobs   blob.Store
	bus     *events.Bus
	log     logging.Logger
}

// reportBlobID keys a rendered report cached locally until its upload.
func reportBlobID(logID string) string {
	return "report_" + logID + ".pdf"
}

func NewSyncService(replica cloud.Replica, sites *store.SiteStore, logs *store.InspectionStore,
	blobs blob.Store, bus *events.Bus, logger logging.Logger) *SyncService {
	return &SyncService{
		replica: replica,
		sites:   sites,
		logs:    logs,
		blobs:   blobs,
		bus:     bus,
		log:     logger,
	}
}

// Online reports whether the replica is configured and reachable right now.
func (s *SyncService) Online(ctx context.Context) bool {
	if s.replica == nil {
		return false
	}
	if err := s.replica.Ping(ctx); err != nil {
		s.log.Debug(ctx, "replica unreachable", "error", err)
		return false
	}
	return true
}

// PushPending uploads every local site and inspection log whose synced flag
// is false. Each item's failure is isolated: one rejected upload never
// prevents attempting the rest, and an item's local synced flag flips only
// after that item's upsert succeeded. Offline or unconfigured, the sweep is
// a deliberate no-op returning zero.
func (s *SyncService) PushPending(ctx context.Context) (int, error) {
	if !s.Online(ctx) {
		return 0, nil
	}

	count := 0

	pendingSites, err := s.sites.GetPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending sites: %w", err)
	}
	sitesChanged := false
	for i := range pendingSites {
		site := pendingSites[i]
		if err := s.replica.UpsertSite(ctx, &site); err != nil {
			s.log.Warn(ctx, "site push rejected, will retry", "site", site.ID, "error", err)
			continue
		}
		if err := s.sites.MarkSynced(ctx, site.ID); err != nil {
			s.log.Warn(ctx, "failed to flag site synced", "site", site.ID, "error", err)
			continue
		}
		count++
		sitesChanged = true
	}

	pendingLogs, err := s.logs.GetPending(ctx)
	if err != nil {
		return count, fmt.Errorf("failed to list pending inspections: %w", err)
	}
	logsChanged := false
	for i := range pendingLogs {
		log := pendingLogs[i]
		if err := s.uploadLog(ctx, &log, nil); err != nil {
			s.log.Warn(ctx, "inspection push rejected, will retry", "inspection", log.ID, "error", err)
			continue
		}
		count++
		logsChanged = true
	}

	if sitesChanged {
		s.bus.Publish(events.TopicSitesChanged)
	}
	if logsChanged {
		s.bus.Publish(events.TopicInspectionsChanged)
	}
	return count, nil
}

// PullAuthoritative fetches the full remote collections and merges them over
// the local ones. Pending local edits are pushed first so the pull does not
// mask work that was about to leave the device; during the merge every
// remote record arrives marked synced, and any still-pending local record
// takes precedence over the same-id remote copy, because the remote cannot
// yet reflect the unpushed edit.
func (s *SyncService) PullAuthoritative(ctx context.Context) error {
	if !s.Online(ctx) {
		return nil
	}

	if _, err := s.PushPending(ctx); err != nil {
		return err
	}

	if err := s.pullSites(ctx); err != nil {
		return err
	}
	return s.pullInspections(ctx)
}

func (s *SyncService) pullSites(ctx context.Context) error {
	rows, err := s.replica.FetchAll(ctx, cloud.TableSites)
	if err != nil {
		// Connectivity dropped mid-sweep. Soft failure, retry later.
		s.log.Warn(ctx, "site pull failed, keeping local state", "error", err)
		return nil
	}

	pending, err := s.sites.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending sites: %w", err)
	}
	pendingByID := make(map[string]int, len(pending))
	for i := range pending {
		pendingByID[pending[i].ID] = i
	}

	merged := make([]models.Site, 0, len(rows)+len(pending))
	overlaid := make(map[string]bool, len(pending))
	for _, row := range rows {
		if i, ok := pendingByID[row.ID]; ok {
			merged = append(merged, pending[i])
			overlaid[row.ID] = true
			continue
		}
		var site models.Site
		if err := json.Unmarshal(row.Data, &site); err != nil {
			s.log.Warn(ctx, "skipping undecodable remote site", "site", row.ID, "error", err)
			continue
		}
		site.Synced = true
		merged = append(merged, site)
	}
	for i := range pending {
		if !overlaid[pending[i].ID] {
			merged = append(merged, pending[i])
		}
	}

	if err := s.sites.ReplaceAll(ctx, merged); err != nil {
		return fmt.Errorf("failed to persist merged sites: %w", err)
	}
	s.bus.Publish(events.TopicSitesChanged)
	return nil
}

func (s *SyncService) pullInspections(ctx context.Context) error {
	rows, err := s.replica.FetchAll(ctx, cloud.TableInspections)
	if err != nil {
		s.log.Warn(ctx, "inspection pull failed, keeping local state", "error", err)
		return nil
	}

	pending, err := s.logs.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending inspections: %w", err)
	}
	pendingByID := make(map[string]int, len(pending))
	for i := range pending {
		pendingByID[pending[i].ID] = i
	}

	merged := make([]models.InspectionLog, 0, len(rows)+len(pending))
	overlaid := make(map[string]bool, len(pending))
	for _, row := range rows {
		if i, ok := pendingByID[row.ID]; ok {
			merged = append(merged, pending[i])
			overlaid[row.ID] = true
			continue
		}
		var log models.InspectionLog
		if err := json.Unmarshal(row.Data, &log); err != nil {
			s.log.Warn(ctx, "skipping undecodable remote inspection", "inspection", row.ID, "error", err)
			continue
		}
		log.Synced = true
		// The server-side column is the write-once source of truth for
		// the report URL; it wins over whatever the payload carries.
		if row.PdfURL != "" {
			log.PdfURL = row.PdfURL
		}
		merged = append(merged, log)
	}
	for i := range pending {
		if !overlaid[pending[i].ID] {
			merged = append(merged, pending[i])
		}
	}

	if err := s.logs.ReplaceAll(ctx, merged); err != nil {
		return fmt.Errorf("failed to persist merged inspections: %w", err)
	}
	s.bus.Publish(events.TopicInspectionsChanged)
	return nil
}

// PromotePhotos walks the log's answers and uploads every photo still held
// in the local blob store to its deterministic cloud path, rewriting the
// answer's reference to the returned public URL and deleting the local copy
// only after the upload succeeded. A failed upload leaves the reference and
// the blob untouched so a later retry re-attempts only the still-local
// photos. Returns the number of photos promoted.
func (s *SyncService) PromotePhotos(ctx context.Context, log *models.InspectionLog) int {
	promoted := 0
	for i := range log.Answers {
		answer := &log.Answers[i]
		blobID, ok := answer.Photo.BlobID()
		if !ok {
			continue
		}

		payload, err := s.blobs.Get(ctx, blobID)
		if err != nil {
			s.log.Warn(ctx, "photo payload missing, leaving reference",
				"inspection", log.ID, "point", answer.PointID, "blob", blobID, "error", err)
			continue
		}

		url, err := s.replica.UploadBlob(ctx, cloud.PhotoPath(log.ID, answer.PointID), payload, "image/jpeg")
		if err != nil {
			s.log.Warn(ctx, "photo upload failed, leaving reference",
				"inspection", log.ID, "point", answer.PointID, "error", err)
			continue
		}

		answer.Photo = models.RemotePhoto(url)
		if err := s.blobs.Delete(ctx, blobID); err != nil {
			s.log.Warn(ctx, "failed to delete promoted blob", "blob", blobID, "error", err)
		}
		promoted++
	}
	return promoted
}

// UploadSite pushes one site synchronously and flags it synced.
func (s *SyncService) UploadSite(ctx context.Context, site *models.Site) error {
	if err := s.replica.UpsertSite(ctx, site); err != nil {
		return err
	}
	if err := s.sites.MarkSynced(ctx, site.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "failed to flag site synced", "site", site.ID, "error", err)
	}
	s.bus.Publish(events.TopicSitesChanged)
	return nil
}

// UploadLog pushes one completed log synchronously: photos are promoted
// first, the rendered report (when given) is uploaded, then the metadata
// upsert runs. A rejected upsert leaves the log completed-unsynced for a
// later PushPending sweep and is returned to the caller so the user can be
// told the report did not reach the cloud.
func (s *SyncService) UploadLog(ctx context.Context, log *models.InspectionLog, pdf []byte) error {
	return s.uploadLog(ctx, log, pdf)
}

func (s *SyncService) uploadLog(ctx context.Context, log *models.InspectionLog, pdf []byte) error {
	if s.PromotePhotos(ctx, log) > 0 {
		// Keep the rewritten references even if the metadata upsert
		// below fails; the blobs are gone.
		if err := s.logs.Upsert(ctx, log); err != nil {
			s.log.Warn(ctx, "failed to persist promoted references", "inspection", log.ID, "error", err)
		}
	}

	if log.PdfURL == "" {
		payload := pdf
		if payload == nil {
			// A report rendered while offline waits in the blob store.
			if cached, err := s.blobs.Get(ctx, reportBlobID(log.ID)); err == nil {
				payload = cached
			}
		}
		if payload != nil {
			url, err := s.replica.UploadBlob(ctx, cloud.ReportPath(log.SiteName, log.ID), payload, "application/pdf")
			if err != nil {
				s.log.Warn(ctx, "report upload failed", "inspection", log.ID, "error", err)
			} else {
				log.PdfURL = url
				if err := s.blobs.Delete(ctx, reportBlobID(log.ID)); err != nil {
					s.log.Warn(ctx, "failed to delete cached report", "inspection", log.ID, "error", err)
				}
			}
		}
	}

	if err := s.replica.UpsertInspection(ctx, log); err != nil {
		return err
	}

	if err := s.logs.Upsert(ctx, log); err != nil {
		s.log.Warn(ctx, "failed to persist uploaded inspection", "inspection", log.ID, "error", err)
	} else if err := s.logs.MarkSynced(ctx, log.ID); err != nil {
		s.log.Warn(ctx, "failed to flag inspection synced", "inspection", log.ID, "error", err)
	}
	log.Synced = true
	return nil
}
