// Package workspace keeps one dashboard session per signed-in teacher: the
// navigation state, the pending deferred delete and the upload queue.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	services "coursehub/internal/domain/services/portal"
	"coursehub/internal/service/navigation"
	"coursehub/internal/service/undo"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/upload/mediatypes"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("workspace registry closed")

// Options tune every session created by a Registry.
type Options struct {
	GracePeriod   time.Duration
	CommitTimeout time.Duration
	// IdleExpiry closes sessions not used for this long. Zero disables it.
	IdleExpiry time.Duration
	Upload     upload.Options
}

// Session is one teacher's dashboard.
type Session struct {
	TeacherID string
	Navigator *navigation.Navigator
	Undo      *undo.Manager
	Uploads   *upload.Queue

	hierarchy services.HierarchyService
	logger    *slog.Logger
	lastUsed  time.Time // guarded by Registry.mu

	mu     sync.Mutex
	hidden *hidden
}

// hidden is the entity removed from view while its delete is pending.
type hidden struct {
	kind    models.Kind
	id      string
	restore func()
}

// Registry creates sessions lazily and disposes of them when idle or on
// shutdown.
type Registry struct {
	hierarchy services.HierarchyService
	folders   repos.FolderRepository
	notes     repos.NoteRepository
	blobs     repos.BlobStore
	media     *mediatypes.Registry
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewRegistry(
	hierarchy services.HierarchyService,
	repositories *repos.Repositories,
	blobs repos.BlobStore,
	media *mediatypes.Registry,
	opts Options,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		hierarchy: hierarchy,
		folders:   repositories.Folders,
		notes:     repositories.Notes,
		blobs:     blobs,
		media:     media,
		opts:      opts,
		logger:    logger.With("component", "workspace"),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the teacher's session, creating it and loading the
// department list on first use.
func (r *Registry) Get(ctx context.Context, teacherID string) (*Session, error) {
	if teacherID == "" {
		return nil, domain.ErrUnauthorized
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if s, ok := r.sessions[teacherID]; ok {
		s.lastUsed = r.now()
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	s := r.newSession(teacherID)
	if err := s.Navigator.Load(ctx); err != nil {
		s.Uploads.Close()
		_ = s.Undo.Close(ctx)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		s.Uploads.Close()
		_ = s.Undo.Close(ctx)
		return nil, ErrClosed
	}
	// Another request may have won the race.
	if existing, ok := r.sessions[teacherID]; ok {
		s.Uploads.Close()
		_ = s.Undo.Close(ctx)
		existing.lastUsed = r.now()
		return existing, nil
	}
	s.lastUsed = r.now()
	r.sessions[teacherID] = s
	r.logger.Info("workspace opened", "teacher_id", teacherID)
	return s, nil
}

func (r *Registry) newSession(teacherID string) *Session {
	logger := r.logger.With("teacher_id", teacherID)
	return &Session{
		TeacherID: teacherID,
		Navigator: navigation.New(r.hierarchy, logger),
		Undo:      undo.NewManager(r.opts.GracePeriod, r.opts.CommitTimeout, logger),
		Uploads:   upload.NewQueue(r.folders, r.notes, r.blobs, r.media, r.opts.Upload, logger),
		hierarchy: r.hierarchy,
		logger:    logger,
	}
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than IdleExpiry. Sessions with an
// upload in progress are kept.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.opts.IdleExpiry <= 0 {
		return 0
	}

	cutoff := r.now().Add(-r.opts.IdleExpiry)
	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastUsed.After(cutoff) || s.Uploads.Snapshot().State == upload.StateUploading {
			continue
		}
		delete(r.sessions, id)
		idle = append(idle, s)
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			s.logger.Warn("idle workspace close failed", "error", err)
		}
		s.logger.Info("workspace expired")
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.opts.IdleExpiry <= 0 {
		return
	}
	interval := r.opts.IdleExpiry / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(context.WithoutCancel(ctx))
		}
	}
}

// Close disposes of every session, committing pending deletes on a
// best-effort basis within ctx.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(sessions))
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Close(ctx)
		}()
	}
	wg.Wait()

	r.logger.Info("workspaces closed", "count", len(sessions))
	return errors.Join(errs...)
}

// Delete hides the entity from the session's lists and schedules its
// removal. Undo puts it back.
func (s *Session) Delete(ctx context.Context, kind models.Kind, id string) (undo.Status, error) {
	if kind == models.KindSubject && id == models.GeneralSubjectID {
		return undo.Status{}, &domain.ValidationError{Message: "the general subject cannot be deleted"}
	}
	label, err := s.hierarchy.Label(ctx, kind, id)
	if err != nil {
		return undo.Status{}, err
	}

	h := &hidden{kind: kind, id: id, restore: s.hide(kind, id)}
	s.mu.Lock()
	s.hidden = h
	s.mu.Unlock()

	err = s.Undo.Schedule(undo.Item{
		ID:          id,
		Description: fmt.Sprintf("Deleted %s %q", kind, label),
		Commit: func(ctx context.Context) error {
			defer s.release(h)
			return s.hierarchy.Delete(ctx, kind, id)
		},
		Undo: func() {
			if restore := s.release(h); restore != nil {
				restore()
			}
		},
	})
	if err != nil {
		if restore := s.release(h); restore != nil {
			restore()
		}
		return undo.Status{}, err
	}

	s.logger.Info("delete scheduled", "kind", kind, "id", id)
	return s.Undo.Status(), nil
}

// Select selects, or toggles off, one navigation level. A refetched list
// still hides the entity whose delete is pending.
func (s *Session) Select(ctx context.Context, level models.Level, id string) error {
	return s.rehide(s.Navigator.Select(ctx, level, id))
}

// ClearFolder shows the subject root notes again.
func (s *Session) ClearFolder() {
	s.Navigator.ClearFolder()
}

// Rehydrate restores a deep-linked selection, keeping a pending delete hidden.
func (s *Session) Rehydrate(ctx context.Context, params url.Values) error {
	return s.rehide(s.Navigator.Rehydrate(ctx, params))
}

// Refresh refetches the navigator's lists, keeping a pending delete hidden.
func (s *Session) Refresh(ctx context.Context) error {
	return s.rehide(s.Navigator.Refresh(ctx))
}

// rehide removes the pending delete from lists fetched since it was hidden
// and passes err through.
func (s *Session) rehide(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden == nil {
		return err
	}
	if restore := s.hide(s.hidden.kind, s.hidden.id); restore != nil {
		s.hidden.restore = restore
	}
	return err
}

func (s *Session) hide(kind models.Kind, id string) func() {
	if level, ok := kind.Level(); ok {
		return s.Navigator.Hide(level, id)
	}
	return s.Navigator.HideNote(id)
}

// release forgets h if it is still the hidden entity and returns its
// current restore function.
func (s *Session) release(h *hidden) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden != h {
		return nil
	}
	s.hidden = nil
	return h.restore
}

// Close stops the upload queue and commits any pending delete.
func (s *Session) Close(ctx context.Context) error {
	s.Uploads.Close()
	return s.Undo.Close(ctx)
}
