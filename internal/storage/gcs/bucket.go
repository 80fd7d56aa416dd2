// Package gcs stores uploaded note files in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	repos "coursehub/internal/domain/repositories/portal"
)

const (
	uploadTimeout = 2 * time.Minute
	deleteTimeout = 30 * time.Second
)

// Config selects the bucket and how public URLs are built.
type Config struct {
	Bucket        string
	PublicBaseURL string // optional CDN or proxy in front of the bucket
	EmulatorHost  string // e.g. http://localhost:4443 for fake-gcs-server
}

// BlobStore implements the portal BlobStore on top of a GCS bucket.
type BlobStore struct {
	client       *storage.Client
	bucket       string
	publicBase   string
	emulatorHost string
	logger       *slog.Logger
}

// NewBlobStore opens a storage client. With EmulatorHost set the client
// talks to the emulator without credentials.
func NewBlobStore(ctx context.Context, cfg Config, logger *slog.Logger) (*BlobStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET")
	}
	if cfg.PublicBaseURL != "" {
		parsed, err := url.Parse(cfg.PublicBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid GCS_PUBLIC_BASE_URL=%q; expected absolute URL", cfg.PublicBaseURL)
		}
	}

	emulator := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	var opts []option.ClientOption
	if emulator != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	logger.Info("object storage initialized",
		"bucket", cfg.Bucket,
		"emulator_host", emulator,
		"public_base_url", cfg.PublicBaseURL,
	)

	return &BlobStore{
		client:       client,
		bucket:       cfg.Bucket,
		publicBase:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		emulatorHost: emulator,
		logger:       logger.With("component", "gcs"),
	}, nil
}

var _ repos.BlobStore = (*BlobStore)(nil)

// Upload streams r into the object at path and returns its public URL.
func (s *BlobStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	s.logger.Debug("object uploaded", "path", path, "content_type", contentType)
	return s.PublicURL(path), nil
}

// Delete removes the object. A missing object is not an error.
func (s *BlobStore) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", path, s.bucket, err)
	}
	return nil
}

// PublicURL builds the address students open a note from.
func (s *BlobStore) PublicURL(path string) string {
	path = strings.TrimLeft(path, "/")
	switch {
	case s.publicBase != "":
		return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, path)
	case s.emulatorHost != "":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", s.emulatorHost, s.bucket, url.PathEscape(path))
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
	}
}

// Close releases the storage client.
func (s *BlobStore) Close() error {
	return s.client.Close()
}
