// Package upload validates picked files, places them in folders and uploads
// them concurrently while tracking each file's progress.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	"coursehub/internal/service/upload/mediatypes"
)

var (
	// ErrQueueBlocked means the previous batch had failures that have not
	// been acknowledged yet.
	ErrQueueBlocked = errors.New("upload queue has unacknowledged failures")
	// ErrQueueBusy means a batch is still uploading.
	ErrQueueBusy = errors.New("an upload batch is already in progress")
)

// sniffLength matches what mimetype inspects by default.
const sniffLength = 3072

type Status string

const (
	StatusQueued    Status = "queued"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateSettled   State = "settled" // all succeeded, clearing after the confirmation delay
	StateBlocked   State = "blocked" // failures retained until Acknowledge
)

// Target is where a batch is filed. SubjectID defaults to the general subject.
type Target struct {
	DepartmentID string  `json:"department_id"`
	BatchID      string  `json:"batch_id"`
	SemesterID   string  `json:"semester_id"`
	SubjectID    string  `json:"subject_id"`
	FolderID     *string `json:"folder_id,omitempty"`
}

func (t Target) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.DepartmentID, validation.Required),
		validation.Field(&t.BatchID, validation.Required),
		validation.Field(&t.SemesterID, validation.Required),
	)
}

func (t Target) scope() models.Scope {
	s := models.Scope{
		DepartmentID: t.DepartmentID,
		BatchID:      t.BatchID,
		SemesterID:   t.SemesterID,
		SubjectID:    t.SubjectID,
	}
	if s.SubjectID == "" {
		s.SubjectID = models.GeneralSubjectID
	}
	return s
}

// Request is one submission.
type Request struct {
	Target   Target
	Uploader string
	Files    []File
	// ExpandArchives uploads the contents of zip files instead of
	// rejecting them as an unsupported type.
	ExpandArchives bool
}

// Notice explains why a file was skipped.
type Notice struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Entry tracks one accepted file.
type Entry struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Size        int64   `json:"size"`
	ContentType string  `json:"content_type"`
	FolderName  string  `json:"folder_name,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"`
	Status      Status  `json:"status"`
	Error       string  `json:"error,omitempty"`
	NoteID      string  `json:"note_id,omitempty"`
	StoragePath string  `json:"-"`
}

// Snapshot is a copy of the queue.
type Snapshot struct {
	State   State    `json:"state"`
	Entries []Entry  `json:"entries"`
	Notices []Notice `json:"notices"`
}

// Result summarises a settled batch.
type Result struct {
	Entries   []Entry  `json:"entries"`
	Notices   []Notice `json:"notices"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Blocked   bool     `json:"blocked"`
}

// Options tune a Queue.
type Options struct {
	MaxFileSize  int64
	ConfirmDelay time.Duration
}

// Queue runs one batch at a time for one uploader.
type Queue struct {
	folders  repos.FolderRepository
	notes    repos.NoteRepository
	blobs    repos.BlobStore
	registry *mediatypes.Registry
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	state      State
	entries    []Entry
	notices    []Notice
	batch      uint64
	clearTimer *time.Timer
}

func NewQueue(
	folders repos.FolderRepository,
	notes repos.NoteRepository,
	blobs repos.BlobStore,
	registry *mediatypes.Registry,
	opts Options,
	logger *slog.Logger,
) *Queue {
	return &Queue{
		folders:  folders,
		notes:    notes,
		blobs:    blobs,
		registry: registry,
		opts:     opts,
		logger:   logger.With("component", "upload"),
		now:      time.Now,
		state:    StateIdle,
	}
}

// accepted pairs an Entry with the file it came from.
type accepted struct {
	entry *Entry
	file  File
}

// Submit validates and uploads a batch and returns once every file has
// settled. Uploads already started are not cancelled when ctx is.
func (q *Queue) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid upload target: %v", err)}
	}
	if req.Uploader == "" {
		return nil, &domain.ValidationError{Message: "uploader is required"}
	}
	scope := req.Target.scope()

	if req.Target.FolderID != nil && *req.Target.FolderID != "" {
		if err := q.checkFolder(ctx, *req.Target.FolderID, scope); err != nil {
			return nil, err
		}
	}

	q.mu.Lock()
	switch q.state {
	case StateBlocked:
		q.mu.Unlock()
		return nil, ErrQueueBlocked
	case StateUploading:
		q.mu.Unlock()
		return nil, ErrQueueBusy
	}
	if q.clearTimer != nil {
		q.clearTimer.Stop()
		q.clearTimer = nil
	}
	q.batch++
	batch := q.batch
	q.state = StateUploading
	q.entries = nil
	q.notices = nil
	q.mu.Unlock()

	files, notices := req.Files, make([]Notice, 0)
	if req.ExpandArchives {
		var unreadable []Notice
		files, unreadable = expandArchives(req.Files, q.opts.MaxFileSize)
		notices = append(notices, unreadable...)
	}
	work, rejected := q.validate(files)
	notices = append(notices, rejected...)

	q.mu.Lock()
	q.notices = notices
	q.entries = make([]Entry, len(work))
	for i, w := range work {
		q.entries[i] = *w.entry
	}
	q.mu.Unlock()

	if len(work) == 0 {
		q.mu.Lock()
		q.state = StateIdle
		q.mu.Unlock()
		return &Result{Entries: []Entry{}, Notices: notices}, nil
	}

	uploadCtx := context.WithoutCancel(ctx)
	q.assignFolders(uploadCtx, req, scope, work)

	var g errgroup.Group
	for _, w := range work {
		if w.entry.Status == StatusError {
			continue
		}
		g.Go(func() error {
			q.uploadOne(uploadCtx, req.Uploader, scope, w)
			return nil
		})
	}
	_ = g.Wait()

	return q.settle(batch), nil
}

// validate applies the size and media type gates. Rejected files become
// notices and are never opened for upload.
func (q *Queue) validate(files []File) ([]accepted, []Notice) {
	work := make([]accepted, 0, len(files))
	notices := make([]Notice, 0)

	for _, f := range files {
		name := baseName(f.Name)
		if name == "" {
			notices = append(notices, Notice{File: f.Name, Reason: "file name is empty"})
			continue
		}
		if q.opts.MaxFileSize > 0 && f.Size > q.opts.MaxFileSize {
			notices = append(notices, Notice{
				File:   name,
				Reason: fmt.Sprintf("file exceeds the %d MiB limit", q.opts.MaxFileSize>>20),
			})
			continue
		}

		contentType := mediatypes.Normalize(f.ContentType)
		if contentType == "" || contentType == mediatypes.OctetStream {
			contentType = q.registry.Resolve(name, contentType, q.sniff(f))
		}
		if !q.registry.Allowed(contentType) {
			notices = append(notices, Notice{
				File:   name,
				Reason: fmt.Sprintf("file type %s is not allowed", contentType),
			})
			continue
		}

		work = append(work, accepted{
			entry: &Entry{
				Index:       len(work),
				Name:        name,
				Size:        f.Size,
				ContentType: contentType,
				FolderName:  impliedFolder(f.RelativePath),
				Status:      StatusQueued,
			},
			file: f,
		})
	}
	return work, notices
}

func (q *Queue) sniff(f File) []byte {
	if f.Open == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	head, _ := io.ReadAll(io.LimitReader(rc, sniffLength))
	return head
}

func (q *Queue) checkFolder(ctx context.Context, folderID string, scope models.Scope) error {
	folder, err := q.folders.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if folder.SemesterID != scope.SemesterID || folder.SubjectID != scope.SubjectID {
		return &domain.ValidationError{Message: fmt.Sprintf("folder %s does not belong to the upload target", folderID)}
	}
	return nil
}

// assignFolders decides each file's folder before any upload starts. An
// explicit folder applies to every file. Otherwise files are grouped by the
// top-level directory of their relative path and each group gets one
// folder, reusing an existing folder with exactly that name.
func (q *Queue) assignFolders(ctx context.Context, req Request, scope models.Scope, work []accepted) {
	if id := req.Target.FolderID; id != nil && *id != "" {
		for _, w := range work {
			q.setFolder(w.entry, *id)
		}
		return
	}

	groups := make(map[string][]accepted)
	for _, w := range work {
		if w.entry.FolderName != "" {
			groups[w.entry.FolderName] = append(groups[w.entry.FolderName], w)
		}
	}
	if len(groups) == 0 {
		return
	}

	existing := make(map[string]string)
	folders, err := q.folders.ListByScope(ctx, scope)
	if err != nil {
		q.logger.Error("failed to list folders for upload", "scope", scope, "error", err)
		for _, group := range groups {
			for _, w := range group {
				q.fail(w.entry, "could not look up folders")
			}
		}
		return
	}
	for _, f := range folders {
		if _, seen := existing[f.Name]; !seen {
			existing[f.Name] = f.ID
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		id, ok := existing[name]
		if !ok {
			folder := &models.Folder{
				DepartmentID: scope.DepartmentID,
				BatchID:      scope.BatchID,
				SemesterID:   scope.SemesterID,
				SubjectID:    scope.SubjectID,
				Name:         name,
				CreatedBy:    req.Uploader,
			}
			if err := q.folders.Create(ctx, folder); err != nil {
				q.logger.Error("failed to create folder for upload", "name", name, "error", err)
				for _, w := range groups[name] {
					q.fail(w.entry, fmt.Sprintf("could not create folder %q", name))
				}
				continue
			}
			q.logger.Info("folder created from upload", "folder_id", folder.ID, "name", name)
			id = folder.ID
		}
		for _, w := range groups[name] {
			q.setFolder(w.entry, id)
		}
	}
}

// uploadOne stores the blob and only then creates the note, with its folder
// set in the same write.
func (q *Queue) uploadOne(ctx context.Context, uploader string, scope models.Scope, w accepted) {
	storagePath := q.objectPath(uploader, w.entry.Name)
	q.update(w.entry, func(e *Entry) {
		e.Status = StatusUploading
		e.StoragePath = storagePath
	})

	rc, err := w.file.Open()
	if err != nil {
		q.logger.Error("failed to open upload", "file", w.entry.Name, "error", err)
		q.fail(w.entry, "could not read file")
		return
	}
	fileURL, err := q.blobs.Upload(ctx, storagePath, rc, w.entry.ContentType)
	rc.Close()
	if err != nil {
		q.logger.Error("blob upload failed", "file", w.entry.Name, "path", storagePath, "error", err)
		q.fail(w.entry, "upload failed")
		return
	}

	note := &models.Note{
		DepartmentID: scope.DepartmentID,
		BatchID:      scope.BatchID,
		SemesterID:   scope.SemesterID,
		SubjectID:    scope.SubjectID,
		FolderID:     w.entry.FolderID,
		Title:        w.entry.Name,
		FileURL:      fileURL,
		FileType:     w.entry.ContentType,
		StoragePath:  storagePath,
		Size:         w.entry.Size,
		UploadedBy:   uploader,
	}
	if err := q.notes.Create(ctx, note); err != nil {
		q.logger.Error("failed to record note", "file", w.entry.Name, "error", err)
		if delErr := q.blobs.Delete(ctx, storagePath); delErr != nil {
			q.logger.Warn("failed to remove orphaned blob", "path", storagePath, "error", delErr)
		}
		q.fail(w.entry, "could not save note")
		return
	}

	q.update(w.entry, func(e *Entry) {
		e.Status = StatusSuccess
		e.NoteID = note.ID
	})
	q.logger.Info("file uploaded", "note_id", note.ID, "file", w.entry.Name, "size", w.entry.Size)
}

// objectPath is notes/<uploader>/<unix-ms>_<random>_<filename>.
func (q *Queue) objectPath(uploader, name string) string {
	random := uuid.NewString()[:8]
	return fmt.Sprintf("notes/%s/%d_%s_%s", safeObjectName(uploader), q.now().UnixMilli(), random, safeObjectName(name))
}

func (q *Queue) settle(batch uint64) *Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	res := &Result{
		Entries: slices.Clone(q.entries),
		Notices: slices.Clone(q.notices),
	}
	for _, e := range q.entries {
		if e.Status == StatusSuccess {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	if res.Failed > 0 {
		q.state = StateBlocked
		res.Blocked = true
		q.logger.Warn("upload batch finished with failures", "succeeded", res.Succeeded, "failed", res.Failed)
		return res
	}

	q.state = StateSettled
	q.clearTimer = time.AfterFunc(q.opts.ConfirmDelay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.batch == batch && q.state == StateSettled {
			q.reset()
		}
	})
	q.logger.Info("upload batch finished", "succeeded", res.Succeeded)
	return res
}

// Acknowledge clears a retained or settled batch so new uploads are
// accepted. It reports false while a batch is uploading or the queue is idle.
func (q *Queue) Acknowledge() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != StateBlocked && q.state != StateSettled {
		return false
	}
	if q.clearTimer != nil {
		q.clearTimer.Stop()
		q.clearTimer = nil
	}
	q.reset()
	return true
}

// Snapshot copies the current queue, including in-flight statuses.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := slices.Clone(q.entries)
	if entries == nil {
		entries = []Entry{}
	}
	notices := slices.Clone(q.notices)
	if notices == nil {
		notices = []Notice{}
	}
	return Snapshot{State: q.state, Entries: entries, Notices: notices}
}

// Close stops the pending clear timer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.clearTimer != nil {
		q.clearTimer.Stop()
		q.clearTimer = nil
	}
}

func (q *Queue) reset() {
	q.state = StateIdle
	q.entries = nil
	q.notices = nil
}

// update applies fn to the local entry and mirrors it into the queue.
func (q *Queue) update(e *Entry, fn func(*Entry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn(e)
	if e.Index < len(q.entries) {
		q.entries[e.Index] = *e
	}
}

func (q *Queue) setFolder(e *Entry, folderID string) {
	q.update(e, func(e *Entry) {
		id := folderID
		e.FolderID = &id
	})
}

func (q *Queue) fail(e *Entry, reason string) {
	q.update(e, func(e *Entry) {
		e.Status = StatusError
		e.Error = reason
	})
}
