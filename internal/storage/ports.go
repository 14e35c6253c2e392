package storage

import "context"

// KV is a durable keyed store of serialized values. Every Put replaces the
// previous value for the key in full.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Close() error
}
