package blob

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"filesystem": fs,
		"memory":     NewMemoryStore(),
	}
}

func TestStore_SaveGetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, "site1_p1_123", []byte{0xFF, 0xD8, 0xFF}))

			got, err := s.Get(ctx, "site1_p1_123")
			require.NoError(t, err)
			assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, got)

			require.NoError(t, s.Delete(ctx, "site1_p1_123"))

			_, err = s.Get(ctx, "site1_p1_123")
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestStore_MissingIDTolerated(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "ghost")
			assert.ErrorIs(t, err, common.ErrNotFound)

			// deleting a non-existent id is a no-op
			require.NoError(t, s.Delete(ctx, "ghost"))
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, "id", []byte("v1")))
			require.NoError(t, s.Save(ctx, "id", []byte("v2")))

			got, err := s.Get(ctx, "id")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)
		})
	}
}

func TestFileStore_CompositeIDStaysInRoot(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "../escape", []byte("x")))

	got, err := fs.Get(ctx, "../escape")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
