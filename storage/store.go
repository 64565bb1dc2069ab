package storage

import "context"

// PlaintextStore is the backend capability for durable key/value storage.
// Implementations store exactly what they are given; encryption happens in
// the layer above. Get reports absence through the bool, not an error.
type PlaintextStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
