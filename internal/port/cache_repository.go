package port

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by ReadRaw when nothing is stored under the key.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository is the durable key-value slot the cart mirrors into.
// The cart engine serializes and deserializes the payload itself;
// implementations store the raw bytes as given, without partial writes.
type CacheRepository interface {
	ReadRaw(ctx context.Context, key string) ([]byte, error)
	WriteRaw(ctx context.Context, key string, value []byte) error
}
