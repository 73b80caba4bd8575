// Package cloud defines the narrow contract the sync engine uses to talk to
// the authoritative backend: record upserts and bulk fetches for the sites
// and inspections tables, record deletion, and blob upload into the reports
// namespace. "Offline" and "not configured" are treated identically: the
// operation is unavailable now and will be retried later.
package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sitecheck/internal/models"
)

const (
	TableSites       = "sites"
	TableInspections = "inspections"

	// BlobNamespace prefixes every uploaded object key.
	BlobNamespace = "reports"
)

// Row is one record as the backend returns it: the id, the full JSON
// payload, and for inspections the server-side pdf_url column, which is the
// write-once source of truth set at upload time.
type Row struct {
	ID     string
	Data   []byte
	PdfURL string
}

// Replica is the cloud backend contract.
type Replica interface {
	// Ping reports reachability; a non-nil error means sync operations
	// should be skipped and retried later.
	Ping(ctx context.Context) error

	// UpsertSite writes a site's denormalized JSON payload keyed by id.
	UpsertSite(ctx context.Context, site *models.Site) error

	// UpsertInspection writes a log's JSON payload along with the
	// denormalized site_name, inspector_name, date and pdf_url columns
	// used for server-side filtering without parsing the payload.
	UpsertInspection(ctx context.Context, log *models.InspectionLog) error

	// FetchAll returns every row of a table.
	FetchAll(ctx context.Context, table string) ([]Row, error)

	// DeleteRecord removes one row; missing ids are a no-op.
	DeleteRecord(ctx context.Context, table, id string) error

	// UploadBlob stores bytes under the reports namespace and returns the
	// public URL.
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// PhotoPath is the deterministic object path for an answer's photo.
func PhotoPath(logID, pointID string) string {
	return fmt.Sprintf("%s/%s.jpg", logID, pointID)
}

// ReportPath is the deterministic object path for a log's final PDF.
func ReportPath(siteName, logID string) string {
	name := strings.NewReplacer(" ", "-", "/", "-").Replace(siteName)
	return fmt.Sprintf("%s_%s.pdf", name, logID)
}
