package filestore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("file not found in storage")

// FileStore holds uploaded objects by key
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL is where a client can fetch a public object such as an avatar
	URL(key string) string
}
