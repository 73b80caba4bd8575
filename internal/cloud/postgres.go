package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/cloud/migrations"
	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/config"
	"github.com/dmitrijs2005/sitecheck/internal/models"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresReplica implements Replica over a Postgres record backend and an
// S3-compatible blob bucket.
type PostgresReplica struct {
	db   *sql.DB
	blob *s3Bucket
}

// NewPostgresReplica opens the backend connection and, when the bucket is
// configured, the blob client. The caller decides whether to run migrations.
func NewPostgresReplica(dsn string, s3cfg config.S3Config) (*PostgresReplica, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	r := &PostgresReplica{db: db}
	if s3cfg.Bucket != "" && s3cfg.AccessKey != "" && s3cfg.SecretKey != "" {
		r.blob = newS3Bucket(s3cfg)
	}
	return r, nil
}

// RunMigrations applies the embedded goose migrations to the backend.
func (r *PostgresReplica) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return goose.UpContext(ctx, r.db, ".")
}

func (r *PostgresReplica) Close() error {
	return r.db.Close()
}

func (r *PostgresReplica) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	return nil
}

func (r *PostgresReplica) UpsertSite(ctx context.Context, site *models.Site) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("failed to encode site: %w", err)
	}

	query := `
		INSERT INTO sites (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := r.db.ExecContext(ctx, query, site.ID, data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteRejected, err)
	}
	return nil
}

// UpsertInspection writes the payload plus the denormalized columns. The
// pdf_url column is write-once: a later upsert with an empty URL never
// clears a value the upload already set.
func (r *PostgresReplica) UpsertInspection(ctx context.Context, log *models.InspectionLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode inspection: %w", err)
	}

	query := `
		INSERT INTO inspections (id, data, site_name, inspector_name, date, pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			site_name = EXCLUDED.site_name,
			inspector_name = EXCLUDED.inspector_name,
			date = EXCLUDED.date,
			pdf_url = CASE WHEN inspections.pdf_url = '' THEN EXCLUDED.pdf_url
				ELSE inspections.pdf_url END
	`
	_, err = r.db.ExecContext(ctx, query,
		log.ID, data, log.SiteName, log.InspectorName, log.Date, log.PdfURL)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteRejected, err)
	}
	return nil
}

func (r *PostgresReplica) FetchAll(ctx context.Context, table string) ([]Row, error) {
	var query string
	switch table {
	case TableSites:
		query = `SELECT id, data, '' FROM sites ORDER BY id`
	case TableInspections:
		query = `SELECT id, data, pdf_url FROM inspections ORDER BY id`
	default:
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", table, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Data, &row.PdfURL); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresReplica) DeleteRecord(ctx context.Context, table, id string) error {
	switch table {
	case TableSites, TableInspections:
	default:
		return fmt.Errorf("unknown table: %s", table)
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteRejected, err)
	}
	return nil
}

func (r *PostgresReplica) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if r.blob == nil {
		return "", fmt.Errorf("%w: blob bucket not configured", common.ErrRemoteUnavailable)
	}
	return r.blob.Upload(ctx, path, data, contentType)
}
