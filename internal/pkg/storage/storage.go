package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// FileStorage stores selfies and request attachments by relative key
type FileStorage interface {
	// Upload writes the content under key and returns the stored key
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete is a no-op for missing keys
	Delete(ctx context.Context, key string) error

	// URL returns the public address of a stored key
	URL(key string) string

	Exists(ctx context.Context, key string) (bool, error)
}
