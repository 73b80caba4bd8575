package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/sitecheck/internal/models"
)

// MemoryReplica is an in-memory implementation of the Replica interface,
// useful for tests and disconnected development. Safe for concurrent use.
type MemoryReplica struct {
	mu      sync.RWMutex
	records map[string]map[string]Row // table -> id -> row
	blobs   map[string][]byte         // namespaced path -> payload
	baseURL string
}

func NewMemoryReplica() *MemoryReplica {
	return &MemoryReplica{
		records: map[string]map[string]Row{
			TableSites:       {},
			TableInspections: {},
		},
		blobs:   make(map[string][]byte),
		baseURL: "memory://bucket",
	}
}

func (m *MemoryReplica) Ping(ctx context.Context) error { return nil }

func (m *MemoryReplica) UpsertSite(ctx context.Context, site *models.Site) error {
	data, err := json.Marshal(site)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[TableSites][site.ID] = Row{ID: site.ID, Data: data}
	return nil
}

func (m *MemoryReplica) UpsertInspection(ctx context.Context, log *models.InspectionLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row := Row{ID: log.ID, Data: data, PdfURL: log.PdfURL}
	// pdf_url column is write-once: keep the first non-empty value.
	if prev, ok := m.records[TableInspections][log.ID]; ok && prev.PdfURL != "" {
		row.PdfURL = prev.PdfURL
	}
	m.records[TableInspections][log.ID] = row
	return nil
}

func (m *MemoryReplica) FetchAll(ctx context.Context, table string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.records[table]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]Row, 0, len(ids))
	for _, id := range ids {
		result = append(result, rows[id])
	}
	return result, nil
}

func (m *MemoryReplica) DeleteRecord(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.records[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	delete(rows, id)
	return nil
}

func (m *MemoryReplica) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := BlobNamespace + "/" + path

	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[key] = buf
	return m.baseURL + "/" + key, nil
}

// Blob returns an uploaded payload by its namespaced key, for assertions.
func (m *MemoryReplica) Blob(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[BlobNamespace+"/"+path]
	return data, ok
}
