package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/dbx"
	"github.com/dmitrijs2005/sitecheck/internal/models"
)

// DraftStore persists the single-slot-per-site draft mapping. Saving always
// replaces the site's slot whole; a site has at most one outstanding draft.
type DraftStore struct {
	db dbx.DB
}

func NewDraftStore(db dbx.DB) *DraftStore {
	return &DraftStore{db: db}
}

// Save upserts the draft into its site's slot.
func (s *DraftStore) Save(ctx context.Context, draft *models.InspectionDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	query := `INSERT INTO drafts (site_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query, draft.SiteID, data, draft.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert draft: %w", err)
	}
	return nil
}

// Get returns the site's draft or common.ErrNotFound.
func (s *DraftStore) Get(ctx context.Context, siteID string) (*models.InspectionDraft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM drafts WHERE site_id=?`, siteID)

	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, common.ErrNotFound
	}
	draft := &models.InspectionDraft{}
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return draft, nil
}

// Delete removes the site's draft. Deleting a missing slot is a no-op.
func (s *DraftStore) Delete(ctx context.Context, siteID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE site_id=?`, siteID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
