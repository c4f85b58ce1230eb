package checkpoint

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("checkpoint not found")

// Backend stores the encoded checkpoint as a single artifact. Write must
// replace the whole artifact atomically.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
	Location() string
}
