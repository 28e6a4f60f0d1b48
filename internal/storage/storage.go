// Package storage keeps uploaded gallery images on the local filesystem
// (development) or in Cloudflare R2 (production).
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Storage is implemented by LocalStorage and R2Storage.
type Storage interface {
	// Put writes data at key, replacing any existing object.
	// Returns ErrTooLarge when data exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for the object.
	URL(key string) string
}

// PutOptions configures a Put.
type PutOptions struct {
	ContentType  string
	CacheControl string
	MaxSize      int64 // 0 means no limit
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// Provider names
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// LocalConfig holds settings for filesystem storage.
type LocalConfig struct {
	BasePath string // Root directory, e.g. ./storage
	BaseURL  string // URL prefix the files are served under, e.g. http://localhost:8080/files
}

// R2Config holds Cloudflare R2 settings.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // Public bucket domain, e.g. https://media.carevia.org
	Region          string // Defaults to "auto"
	Endpoint        string // Overrides the account endpoint (tests, S3-compatible stores)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// New creates the configured Storage.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(ctx, cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// GalleryKey returns a fresh key for a gallery image: gallery/{uuid}.jpg
func GalleryKey() string {
	return fmt.Sprintf("gallery/%s.jpg", uuid.New())
}
