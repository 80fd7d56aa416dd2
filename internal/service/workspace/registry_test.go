package workspace

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	services "coursehub/internal/domain/services/portal"
	"coursehub/internal/repository/memory"
	"coursehub/internal/service/portal"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/upload/mediatypes"
	blobmem "coursehub/internal/storage/memory"
)

var pdfBytes = []byte("%PDF-1.4\n%test\n")

type env struct {
	repos     *repos.Repositories
	blobs     *blobmem.BlobStore
	hierarchy services.HierarchyService
	registry  *Registry

	dept  *models.Department
	batch *models.Batch
	sem   *models.Semester
	sub   *models.Subject
}

func newEnv(t *testing.T, grace time.Duration) *env {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := memory.NewRepositories()
	blobs := blobmem.NewBlobStore("https://files.test")
	hierarchy := portal.NewHierarchyService(r, blobs, logger)
	media, err := mediatypes.NewRegistry()
	require.NoError(t, err)

	registry := NewRegistry(hierarchy, r, blobs, media, Options{
		GracePeriod:   grace,
		CommitTimeout: time.Second,
		IdleExpiry:    time.Hour,
		Upload:        upload.Options{MaxFileSize: 50 << 20, ConfirmDelay: time.Hour},
	}, logger)
	t.Cleanup(func() { _ = registry.Close(context.Background()) })

	e := &env{repos: r, blobs: blobs, hierarchy: hierarchy, registry: registry}
	e.dept, err = hierarchy.CreateDepartment(ctx, &services.CreateDepartmentRequest{Name: "CS"})
	require.NoError(t, err)
	e.batch, err = hierarchy.CreateBatch(ctx, &services.CreateBatchRequest{DepartmentID: e.dept.ID, Name: "2024"})
	require.NoError(t, err)
	e.sem, err = hierarchy.CreateSemester(ctx, &services.CreateSemesterRequest{BatchID: e.batch.ID, Name: "Sem3"})
	require.NoError(t, err)
	e.sub, err = hierarchy.CreateSubject(ctx, &services.CreateSubjectRequest{SemesterID: e.sem.ID, Name: "DBMS"})
	require.NoError(t, err)
	return e
}

func (e *env) drill(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Navigator.SelectDepartment(ctx, e.dept.ID))
	require.NoError(t, s.Navigator.SelectBatch(ctx, e.batch.ID))
	require.NoError(t, s.Navigator.SelectSemester(ctx, e.sem.ID))
	require.NoError(t, s.Navigator.SelectSubject(ctx, e.sub.ID))
}

func TestGet_ReusesSessionPerTeacher(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()

	a, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	b, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	c, err := e.registry.Get(ctx, "teacher-2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, e.registry.Len())
	assert.Len(t, a.Navigator.Snapshot().Departments, 1)

	_, err = e.registry.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// Upload into a folder, delete it, undo, delete again and let it commit.
func TestSession_UploadDeleteUndoCommit(t *testing.T) {
	e := newEnv(t, 100*time.Millisecond)
	ctx := context.Background()

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	e.drill(t, s)

	res, err := s.Uploads.Submit(ctx, upload.Request{
		Target: upload.Target{
			DepartmentID: e.dept.ID,
			BatchID:      e.batch.ID,
			SemesterID:   e.sem.ID,
			SubjectID:    e.sub.ID,
		},
		Uploader: s.TeacherID,
		Files: []upload.File{
			upload.BytesFile("er.pdf", "Unit1/er.pdf", "application/pdf", pdfBytes),
			upload.BytesFile("syllabus.pdf", "", "application/pdf", pdfBytes),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Succeeded)
	require.NoError(t, s.Refresh(ctx))

	view := s.Navigator.Snapshot()
	require.Len(t, view.Folders, 1)
	folder := view.Folders[0]
	assert.Equal(t, "Unit1", folder.Name)
	require.Len(t, view.VisibleNotes, 1, "only the root note is visible without a folder")
	assert.Equal(t, "syllabus.pdf", view.VisibleNotes[0].Title)

	status, err := s.Delete(ctx, models.KindFolder, folder.ID)
	require.NoError(t, err)
	assert.True(t, status.Pending)
	assert.Equal(t, `Deleted folder "Unit1"`, status.Description)
	assert.Empty(t, s.Navigator.Snapshot().Folders)

	require.True(t, s.Undo.Undo())
	assert.Len(t, s.Navigator.Snapshot().Folders, 1)
	_, err = e.repos.Folders.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	_, err = s.Delete(ctx, models.KindFolder, folder.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := e.repos.Folders.GetByID(ctx, folder.ID)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, s.Undo.Status().Pending)
}

func TestSession_RefreshKeepsPendingDeleteHidden(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	e.drill(t, s)

	_, err = s.Delete(ctx, models.KindSubject, e.sub.ID)
	require.NoError(t, err)
	view := s.Navigator.Snapshot()
	assert.Nil(t, view.Subject)
	require.Len(t, view.Subjects, 1)
	assert.True(t, view.Subjects[0].IsGeneral())

	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Navigator.Snapshot().Subjects, 1, "refetched list still hides the pending delete")

	require.True(t, s.Undo.Undo())
	assert.Len(t, s.Navigator.Snapshot().Subjects, 2)
}

func TestSession_ReselectKeepsPendingDeleteHidden(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	e.drill(t, s)

	_, err = s.Delete(ctx, models.KindSubject, e.sub.ID)
	require.NoError(t, err)
	require.Len(t, s.Navigator.Snapshot().Subjects, 1)

	// Toggle the semester off and on again, which refetches its subjects.
	require.NoError(t, s.Select(ctx, models.LevelSemester, e.sem.ID))
	require.NoError(t, s.Select(ctx, models.LevelSemester, e.sem.ID))
	subjects := s.Navigator.Snapshot().Subjects
	require.Len(t, subjects, 1)
	assert.True(t, subjects[0].IsGeneral())

	err = s.Select(ctx, models.LevelSubject, e.sub.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a subject pending deletion cannot be opened")

	require.NoError(t, s.Rehydrate(ctx, url.Values{
		"dept":  {e.dept.ID},
		"batch": {e.batch.ID},
		"sem":   {e.sem.ID},
		"sub":   {e.sub.ID},
	}))
	view := s.Navigator.Snapshot()
	assert.Nil(t, view.Subject, "deep link stops at the hidden subject")
	assert.Len(t, view.Subjects, 1)

	require.True(t, s.Undo.Undo())
	assert.Len(t, s.Navigator.Snapshot().Subjects, 2)
}

func TestSession_FolderSelectKeepsNoteRestorable(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	e.drill(t, s)
	note := &models.Note{
		Title:        "er.pdf",
		FileURL:      "https://files.test/er.pdf",
		DepartmentID: e.dept.ID,
		BatchID:      e.batch.ID,
		SemesterID:   e.sem.ID,
		SubjectID:    e.sub.ID,
	}
	require.NoError(t, e.repos.Notes.Create(ctx, note))
	require.NoError(t, s.Refresh(ctx))

	_, err = s.Delete(ctx, models.KindNote, note.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Navigator.Snapshot().VisibleNotes)

	s.ClearFolder()
	require.True(t, s.Undo.Undo())
	assert.Len(t, s.Navigator.Snapshot().VisibleNotes, 1)
}

func TestSession_DeleteRejectsUnknownAndGeneral(t *testing.T) {
	e := newEnv(t, time.Minute)
	ctx := context.Background()
	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)

	_, err = s.Delete(ctx, models.KindNote, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Delete(ctx, models.KindSubject, models.GeneralSubjectID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, s.Undo.Status().Pending)
}

func TestClose_CommitsPendingDeletes(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	_, err = s.Delete(ctx, models.KindDepartment, e.dept.ID)
	require.NoError(t, err)

	require.NoError(t, e.registry.Close(ctx))

	_, err = e.repos.Departments.GetByID(ctx, e.dept.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.registry.Get(ctx, "teacher-1")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSweep_ClosesIdleSessions(t *testing.T) {
	e := newEnv(t, time.Hour)
	ctx := context.Background()

	now := time.Now()
	e.registry.now = func() time.Time { return now }

	s, err := e.registry.Get(ctx, "teacher-1")
	require.NoError(t, err)
	_, err = s.Delete(ctx, models.KindBatch, e.batch.ID)
	require.NoError(t, err)
	_, err = e.registry.Get(ctx, "teacher-2")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = e.registry.Get(ctx, "teacher-2")
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, e.registry.Sweep(ctx))
	assert.Equal(t, 1, e.registry.Len())

	_, err = e.repos.Batches.GetByID(ctx, e.batch.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "expiry flushes the pending delete")
}
