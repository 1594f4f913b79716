// Package storage archives raw import sources with local and S3 implementations.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists under a key
var ErrNotFound = errors.New("object not found")

// FileInfo contains metadata about a stored object
type FileInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for object storage operations
type Storage interface {
	// Put stores r under key, replacing any existing object
	Put(ctx context.Context, key string, contentType string, r io.Reader) (*FileInfo, error)

	// Get retrieves an object and its metadata
	Get(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error)

	// Stat returns metadata for an object without downloading it
	Stat(ctx context.Context, key string) (*FileInfo, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config holds storage configuration
type Config struct {
	Type StorageType

	LocalPath string

	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	S3UseSSL          bool
}

// New creates a new Storage implementation based on configuration
func New(ctx context.Context, cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg)
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// SourceKey is the object key under which a pasted import source is archived
func SourceKey(format, fingerprint string) string {
	return "sources/" + sanitizeSegment(format) + "/" + sanitizeSegment(fingerprint) + ".txt"
}

// sanitizeSegment removes unsafe characters from a single key segment
func sanitizeSegment(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}

// cleanKey sanitizes every segment of key and drops empty ones
func cleanKey(key string) string {
	parts := strings.Split(key, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = sanitizeSegment(p); p != "" && p != "." {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
