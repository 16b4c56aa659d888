package storage

import (
	"context"
	"errors"
	"strconv"
)

// ErrNotExist is returned by Open when no object lives under the key.
var ErrNotExist = errors.New("object does not exist")

// Store holds file content addressed by an opaque key.
type Store interface {
	// NewKey maps a generated object name to a storage key.
	NewKey(name string) string
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// VariantKey names the resized copy of key at the given width.
func VariantKey(key string, width int) string {
	return key + "_" + strconv.Itoa(width)
}
