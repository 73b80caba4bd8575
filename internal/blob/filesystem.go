package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sitecheck/internal/common"
)

// FileStore is a filesystem-backed blob store. Each payload is one file
// under the root directory, named by its id (path separators replaced so a
// composite id like "site/point/ts" cannot escape the root).
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns the store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(id string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(id)
	return filepath.Join(s.root, name)
}

func (s *FileStore) Save(ctx context.Context, id string, payload []byte) error {
	if err := os.WriteFile(s.path(id), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", id, err)
	}
	return nil
}
