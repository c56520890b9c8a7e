// Package storage is the object store for session audio.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrExists is returned by Put when an object already exists at the path
	// and overwrite was not requested.
	ErrExists = errors.New("storage: object already exists")
	// ErrNoObject is returned when the requested object is missing.
	ErrNoObject = errors.New("storage: no object")
	// ErrInvalidPath is returned for paths that escape the bucket.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// DefaultCacheControl is attached to stored audio.
const DefaultCacheControl = "max-age=3600"

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// Overwrite allows replacing an existing object. Audio uploads never set it.
	Overwrite bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType  string `json:"Content-Type"`
	CacheControl string `json:"Cache-Control,omitempty"`
	Size         int64  `json:"Content-Length"`
}

// Store is a bucket of objects addressed by slash separated paths.
type Store interface {
	// Put writes size bytes from r at p.
	Put(ctx context.Context, p string, r io.Reader, size int64, opts PutOptions) error
	// Open returns the object at p.
	Open(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error)
	// PublicURL returns a URL the object can be fetched from without a
	// session. An empty URL with a nil error means none could be resolved.
	PublicURL(ctx context.Context, p string) (string, error)
	Delete(ctx context.Context, p string) error
}

// CleanPath normalizes an object path and rejects anything that would leave
// the bucket.
func CleanPath(p string) (string, error) {
	if p == "" || strings.Contains(p, "\\") || strings.ContainsRune(p, 0) {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean("/" + p)
	if cleaned == "/" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}

	return strings.TrimPrefix(cleaned, "/"), nil
}
