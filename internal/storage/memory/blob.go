// Package memory is an in-process BlobStore for development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"coursehub/internal/domain"
	repos "coursehub/internal/domain/repositories/portal"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// BlobStore keeps objects in a map keyed by path.
type BlobStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object

	// FailPaths makes Upload fail for any path containing one of the
	// substrings. Tests use it to simulate a remote failure.
	FailPaths []string
}

var _ repos.BlobStore = (*BlobStore)(nil)

func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (s *BlobStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	s.mu.RLock()
	for _, frag := range s.FailPaths {
		if strings.Contains(path, frag) {
			s.mu.RUnlock()
			return "", fmt.Errorf("upload %s: simulated failure", path)
		}
	}
	s.mu.RUnlock()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}

	s.mu.Lock()
	s.objects[path] = Object{Data: buf.Bytes(), ContentType: contentType}
	s.mu.Unlock()

	return s.baseURL + "/" + path, nil
}

func (s *BlobStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

// Get returns the object at path.
func (s *BlobStore) Get(path string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return Object{}, fmt.Errorf("object %s: %w", path, domain.ErrNotFound)
	}
	return obj, nil
}

// Paths lists every stored path.
func (s *BlobStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for p := range s.objects {
		out = append(out, p)
	}
	return out
}

// SetFailPaths replaces FailPaths under the lock.
func (s *BlobStore) SetFailPaths(frags ...string) {
	s.mu.Lock()
	s.FailPaths = frags
	s.mu.Unlock()
}
