// Package storage selects the blob store implementation at startup.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"coursehub/internal/config"
	repos "coursehub/internal/domain/repositories/portal"
	"coursehub/internal/storage/gcs"
	"coursehub/internal/storage/memory"
)

// BlobStore is a portal blob store that owns a client connection.
type BlobStore interface {
	repos.BlobStore
	io.Closer
}

type nopCloser struct{ repos.BlobStore }

func (nopCloser) Close() error { return nil }

// SetupBlobStore opens the store named by cfg.BlobBackend.
func SetupBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (BlobStore, error) {
	switch cfg.BlobBackend {
	case "gcs":
		store, err := gcs.NewBlobStore(ctx, gcs.Config{
			Bucket:        cfg.GCSBucket,
			PublicBaseURL: cfg.GCSPublicBaseURL,
			EmulatorHost:  cfg.GCSEmulatorHost,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("blob store ready", "backend", "gcs", "bucket", cfg.GCSBucket)
		return store, nil

	case "memory":
		logger.Warn("using in-memory blob store; uploads are lost on restart")
		return nopCloser{memory.NewBlobStore("http://localhost:" + cfg.Port + "/blobs")}, nil

	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}
