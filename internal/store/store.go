// Package store abstracts where diagrams and spreadsheets live. The local
// backend reads and writes plain files; the MinIO backend keeps them as
// objects in a single bucket.
//
//	st, err := store.New(ctx, cfg.Storage)
//	if err != nil { ... }
//	defer st.Close()
//
//	info, err := st.Stat(ctx, "shop/erd.json")
package store

import (
	"context"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"io"
	"strings"
	"time"
)

const (
	ProviderLocal = "local"
	ProviderMinIO = "minio"
)

// Store is implemented by every storage backend. Keys use forward slashes.
type Store interface {
	// Stat returns metadata without reading content. A missing key yields
	// an errs.KindNotFound error.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Open streams the content at key. The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Write replaces the content at key and returns where it was written.
	Write(ctx context.Context, key string, data []byte) (string, error)

	Close() error
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderLocal:
		return NewLocal(cfg.Root), nil
	case ProviderMinIO:
		return NewMinIO(ctx, cfg)
	default:
		return nil, errs.Newf(errs.KindInvalidInput, "unsupported storage provider: %s", cfg.Provider)
	}
}
