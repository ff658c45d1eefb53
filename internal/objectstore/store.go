package objectstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// Store provides addressable storage for extracted and submitted documents.
// Keys are slash separated and relative.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// JoinKey builds a clean key from parts, dropping any attempt to climb out
// of the root.
func JoinKey(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
		if p == "" || p == "." {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, "/")
}
