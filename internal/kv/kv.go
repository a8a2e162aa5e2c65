// Package kv provides the key-value persistence primitives the catalog
// snapshot and the cart are stored in. Implementations must treat a missing
// key as absent, not as an error.
package kv

import "context"

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
