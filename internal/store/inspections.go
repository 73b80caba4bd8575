package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/dbx"
	"github.com/dmitrijs2005/sitecheck/internal/models"
)

// InspectionStore persists the inspections collection. It carries the
// quota-exhaustion fallback: when the medium rejects a write for size, the
// inline photo payloads of already-synced logs are stripped to reclaim
// space and the write is retried once. The record being saved and unsynced
// records are never touched.
type InspectionStore struct {
	db dbx.DB
}

func NewInspectionStore(db dbx.DB) *InspectionStore {
	return &InspectionStore{db: db}
}

// GetAll returns the whole collection in order. An empty collection yields
// an empty sequence, never an error.
func (s *InspectionStore) GetAll(ctx context.Context) ([]models.InspectionLog, error) {
	return s.selectLogs(ctx, `SELECT data FROM inspections ORDER BY position`)
}

// GetPending returns logs whose local copy has not been pushed yet.
func (s *InspectionStore) GetPending(ctx context.Context) ([]models.InspectionLog, error) {
	return s.selectLogs(ctx, `SELECT data FROM inspections WHERE synced=0 ORDER BY position`)
}

func (s *InspectionStore) selectLogs(ctx context.Context, query string) ([]models.InspectionLog, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select inspections: %w", err)
	}
	defer rows.Close()

	var result []models.InspectionLog
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var log models.InspectionLog
		if err := json.Unmarshal(data, &log); err != nil {
			return nil, fmt.Errorf("failed to decode inspection: %w", err)
		}
		result = append(result, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns one log or common.ErrNotFound.
func (s *InspectionStore) GetByID(ctx context.Context, id string) (*models.InspectionLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM inspections WHERE id=?`, id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, common.ErrNotFound
	}
	log := &models.InspectionLog{}
	if err := json.Unmarshal(data, log); err != nil {
		return nil, fmt.Errorf("failed to decode inspection: %w", err)
	}
	return log, nil
}

// Upsert inserts or replaces one log by id. On a quota error the fallback
// strips inline photo data from synced logs only and retries once; if the
// retry also fails the error wraps common.ErrQuotaExceeded, leaving the
// caller to decide whether a direct cloud push can still save the record.
func (s *InspectionStore) Upsert(ctx context.Context, log *models.InspectionLog) error {
	err := s.upsert(ctx, log)
	if isQuotaErr(err) {
		if serr := s.stripSyncedInlinePhotos(ctx); serr != nil {
			return fmt.Errorf("%w: %v", common.ErrQuotaExceeded, serr)
		}
		err = s.upsert(ctx, log)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrQuotaExceeded, err)
		}
	}
	return err
}

func (s *InspectionStore) upsert(ctx context.Context, log *models.InspectionLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode inspection: %w", err)
	}

	query := `INSERT INTO inspections (id, data, synced, position)
		VALUES (?, ?, ?, COALESCE(
			(SELECT position FROM inspections WHERE id = ?1),
			(SELECT COALESCE(MAX(position), -1) + 1 FROM inspections)))
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, synced = excluded.synced`
	if _, err := s.db.ExecContext(ctx, query, log.ID, data, log.Synced); err != nil {
		return fmt.Errorf("failed to upsert inspection: %w", err)
	}
	return nil
}

// stripSyncedInlinePhotos rewrites every synced log whose answers still
// carry inline photo data, with that data cleared. Unsynced logs keep their
// payloads untouched: they are the only copy.
func (s *InspectionStore) stripSyncedInlinePhotos(ctx context.Context) error {
	logs, err := s.selectLogs(ctx, `SELECT data FROM inspections WHERE synced=1 ORDER BY position`)
	if err != nil {
		return err
	}

	for i := range logs {
		if !logs[i].StripInlinePhotos() {
			continue
		}
		data, err := json.Marshal(&logs[i])
		if err != nil {
			return fmt.Errorf("failed to encode inspection: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `UPDATE inspections SET data=? WHERE id=?`, data, logs[i].ID)
		if err != nil {
			return fmt.Errorf("failed to strip inspection %s: %w", logs[i].ID, err)
		}
	}
	return nil
}

// ReplaceAll atomically swaps the whole collection for the given records.
func (s *InspectionStore) ReplaceAll(ctx context.Context, logs []models.InspectionLog) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inspections`); err != nil {
			return fmt.Errorf("failed to clear inspections: %w", err)
		}
		for i := range logs {
			data, err := json.Marshal(&logs[i])
			if err != nil {
				return fmt.Errorf("failed to encode inspection: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO inspections (id, data, synced, position) VALUES (?, ?, ?, ?)`,
				logs[i].ID, data, logs[i].Synced, i)
			if err != nil {
				return fmt.Errorf("failed to insert inspection: %w", err)
			}
		}
		return nil
	})
}

// MarkSynced flips the synced flag of one log, in both the queryable column
// and the JSON payload.
func (s *InspectionStore) MarkSynced(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT data FROM inspections WHERE id=?`, id)
		var data []byte
		if err := row.Scan(&data); err != nil {
			return common.ErrNotFound
		}
		var log models.InspectionLog
		if err := json.Unmarshal(data, &log); err != nil {
			return fmt.Errorf("failed to decode inspection: %w", err)
		}
		log.Synced = true
		updated, err := json.Marshal(&log)
		if err != nil {
			return fmt.Errorf("failed to encode inspection: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE inspections SET data=?, synced=1 WHERE id=?`, updated, id)
		if err != nil {
			return fmt.Errorf("failed to mark inspection synced: %w", err)
		}
		return nil
	})
}

// Delete removes one log. Deleting a missing id is a no-op.
func (s *InspectionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM inspections WHERE id=?`, id); err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}
	return nil
}
