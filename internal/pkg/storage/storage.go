package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidPath = errors.New("invalid file path")
	ErrNotFound    = errors.New("file not found")
)

// FileStorage keeps uploaded files under relative keys such as
// "profiles/<id>_<millis>.png".
type FileStorage interface {
	// Save writes file under key and returns the cleaned key.
	Save(ctx context.Context, file io.Reader, key string) (string, error)

	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key; a missing file is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// PublicPath is the URL path clients load the file from.
	PublicPath(key string) string

	// KeyFromPublicPath reverses PublicPath; ok is false for foreign paths.
	KeyFromPublicPath(p string) (key string, ok bool)
}
