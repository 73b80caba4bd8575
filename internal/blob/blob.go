// Package blob implements the local photo blob store: a keyed binary cache
// holding photos until they are promoted to cloud storage. Lookups are by
// id only; no enumeration is needed because every reference embeds its id.
package blob

import "context"

// Store is the photo blob store contract. Get returns common.ErrNotFound
// for a missing id; Delete of a missing id is a no-op.
type Store interface {
	Save(ctx context.Context, id string, payload []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
