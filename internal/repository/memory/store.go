// Package memory keeps the hierarchy in process memory. It backs local
// development (HIERARCHY_BACKEND=memory) and the service tests.
package memory

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursehub/internal/domain"
	repos "coursehub/internal/domain/repositories/portal"
)

// table is a mutex-guarded map of records of one entity kind.
type table[T any] struct {
	mu   sync.RWMutex
	kind string
	rows map[string]T
	now  func() time.Time
}

func newTable[T any](kind string) *table[T] {
	return &table[T]{kind: kind, rows: make(map[string]T), now: time.Now}
}

func (t *table[T]) insert(id string, row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = row
}

func (t *table[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", t.kind, id, domain.ErrNotFound)
	}
	return row, nil
}

func (t *table[T]) update(id string, fn func(*T)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", t.kind, id, domain.ErrNotFound)
	}
	fn(&row)
	t.rows[id] = row
	return nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %s: %w", t.kind, id, domain.ErrNotFound)
	}
	delete(t.rows, id)
	return nil
}

// filter returns matching rows sorted by key, then by id for stable output.
func (t *table[T]) filter(match func(T) bool, key func(T) string, id func(T) string) []T {
	t.mu.RLock()
	out := make([]T, 0)
	for _, row := range t.rows {
		if match(row) {
			out = append(out, row)
		}
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b T) int {
		if c := cmp.Compare(key(a), key(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
	return out
}

func newID() string {
	return uuid.NewString()
}

// NewRepositories returns an empty in-memory hierarchy.
func NewRepositories() *repos.Repositories {
	return &repos.Repositories{
		Departments: NewDepartmentRepository(),
		Batches:     NewBatchRepository(),
		Semesters:   NewSemesterRepository(),
		Subjects:    NewSubjectRepository(),
		Folders:     NewFolderRepository(),
		Notes:       NewNoteRepository(),
	}
}
