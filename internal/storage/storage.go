package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a key does not exist.
var ErrNotFound = errors.New("record not found")

// Store is a string-keyed key-value store holding whole serialized collections.
//
// CompareAndSwap writes next only if the current value equals prev, where a
// missing key compares equal to the empty string. It reports whether the write
// happened; a false result with a nil error means another writer got there first.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	CompareAndSwap(ctx context.Context, key, prev, next string) (bool, error)
}
