package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/dbx"
	"github.com/dmitrijs2005/sitecheck/internal/models"
)

// SiteStore persists the sites collection. Records keep their insertion
// order: ReplaceAll renumbers positions, Upsert keeps an existing record's
// position and appends new ones at the end.
type SiteStore struct {
	db dbx.DB
}

func NewSiteStore(db dbx.DB) *SiteStore {
	return &SiteStore{db: db}
}

// GetAll returns the whole collection in order. An empty collection yields
// an empty sequence, never an error.
func (s *SiteStore) GetAll(ctx context.Context) ([]models.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM sites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select sites: %w", err)
	}
	defer rows.Close()

	var result []models.Site
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var site models.Site
		if err := json.Unmarshal(data, &site); err != nil {
			return nil, fmt.Errorf("failed to decode site: %w", err)
		}
		result = append(result, site)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPending returns sites whose local copy has not been pushed yet.
func (s *SiteStore) GetPending(ctx context.Context) ([]models.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM sites WHERE synced=0 ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending sites: %w", err)
	}
	defer rows.Close()

	var result []models.Site
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var site models.Site
		if err := json.Unmarshal(data, &site); err != nil {
			return nil, fmt.Errorf("failed to decode site: %w", err)
		}
		result = append(result, site)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns one site or common.ErrNotFound.
func (s *SiteStore) GetByID(ctx context.Context, id string) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM sites WHERE id=?`, id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, common.ErrNotFound
	}
	site := &models.Site{}
	if err := json.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("failed to decode site: %w", err)
	}
	return site, nil
}

// Upsert inserts or replaces one site by id. A write rejected for size is
// retried once; if it still fails the error wraps common.ErrQuotaExceeded
// so callers can attempt a direct cloud push instead.
func (s *SiteStore) Upsert(ctx context.Context, site *models.Site) error {
	err := s.upsert(ctx, site)
	if isQuotaErr(err) {
		// Nothing strippable in this collection; retry once in case
		// space was reclaimed elsewhere.
		err = s.upsert(ctx, site)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrQuotaExceeded, err)
		}
	}
	return err
}

func (s *SiteStore) upsert(ctx context.Context, site *models.Site) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("failed to encode site: %w", err)
	}

	query := `INSERT INTO sites (id, data, synced, position)
		VALUES (?, ?, ?, COALESCE(
			(SELECT position FROM sites WHERE id = ?1),
			(SELECT COALESCE(MAX(position), -1) + 1 FROM sites)))
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, synced = excluded.synced`
	if _, err := s.db.ExecContext(ctx, query, site.ID, data, site.Synced); err != nil {
		return fmt.Errorf("failed to upsert site: %w", err)
	}
	return nil
}

// ReplaceAll atomically swaps the whole collection for the given records.
func (s *SiteStore) ReplaceAll(ctx context.Context, sites []models.Site) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sites`); err != nil {
			return fmt.Errorf("failed to clear sites: %w", err)
		}
		for i := range sites {
			data, err := json.Marshal(&sites[i])
			if err != nil {
				return fmt.Errorf("failed to encode site: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO sites (id, data, synced, position) VALUES (?, ?, ?, ?)`,
				sites[i].ID, data, sites[i].Synced, i)
			if err != nil {
				return fmt.Errorf("failed to insert site: %w", err)
			}
		}
		return nil
	})
}

// MarkSynced flips the synced flag of one site, in both the queryable column
// and the JSON payload.
func (s *SiteStore) MarkSynced(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT data FROM sites WHERE id=?`, id)
		var data []byte
		if err := row.Scan(&data); err != nil {
			return common.ErrNotFound
		}
		var site models.Site
		if err := json.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("failed to decode site: %w", err)
		}
		site.Synced = true
		updated, err := json.Marshal(&site)
		if err != nil {
			return fmt.Errorf("failed to encode site: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE sites SET data=?, synced=1 WHERE id=?`, updated, id)
		if err != nil {
			return fmt.Errorf("failed to mark site synced: %w", err)
		}
		return nil
	})
}

// Delete removes one site. Deleting a missing id is a no-op.
func (s *SiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return nil
}
