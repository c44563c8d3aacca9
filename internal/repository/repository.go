package repository

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores used after Close
var ErrClosed = errors.New("store closed")

// KeyValue is a durable byte store addressed by string keys
type KeyValue interface {
	// Get returns the stored value. A missing key is reported with
	// ok=false and a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)

	// Close releases resources
	Close() error
}
