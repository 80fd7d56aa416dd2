package upload

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	"coursehub/internal/repository/memory"
	blobmem "coursehub/internal/storage/memory"
	"coursehub/internal/service/upload/mediatypes"
)

var pdfBytes = []byte("%PDF-1.4\n%test\n")

type fixture struct {
	repos *repos.Repositories
	blobs *blobmem.BlobStore
	queue *Queue
}

func newFixture(t *testing.T, confirmDelay time.Duration) *fixture {
	t.Helper()
	registry, err := mediatypes.NewRegistry()
	require.NoError(t, err)

	r := memory.NewRepositories()
	blobs := blobmem.NewBlobStore("https://files.test")
	q := NewQueue(r.Folders, r.Notes, blobs, registry, Options{
		MaxFileSize:  50 << 20,
		ConfirmDelay: confirmDelay,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(q.Close)

	return &fixture{repos: r, blobs: blobs, queue: q}
}

func target() Target {
	return Target{DepartmentID: "cs", BatchID: "b2024", SemesterID: "sem3", SubjectID: "dbms"}
}

func scope() models.Scope {
	return models.Scope{DepartmentID: "cs", BatchID: "b2024", SemesterID: "sem3", SubjectID: "dbms"}
}

// sizedFile reports a size without holding that much data.
func sizedFile(name, contentType string, size int64) File {
	f := BytesFile(name, "", contentType, pdfBytes)
	f.Size = size
	return f
}

func TestSubmit_GroupsFilesByTopLevelDirectory(t *testing.T) {
	fx := newFixture(t, time.Hour)

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files: []File{
			BytesFile("a.pdf", "Unit1/a.pdf", "application/pdf", pdfBytes),
			BytesFile("b.pdf", "Unit1/deep/b.pdf", "application/pdf", pdfBytes),
			BytesFile("c.pdf", "Unit2/c.pdf", "application/pdf", pdfBytes),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)

	folders, err := fx.repos.Folders.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Unit1", folders[0].Name)
	assert.Equal(t, "Unit2", folders[1].Name)
	assert.Equal(t, "teacher-1", folders[0].CreatedBy)

	notes, err := fx.repos.Notes.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	require.Len(t, notes, 3)
	byTitle := map[string]models.Note{}
	for _, n := range notes {
		require.NotNil(t, n.FolderID, "folder must be set when the note is created")
		byTitle[n.Title] = n
	}
	assert.Equal(t, *byTitle["a.pdf"].FolderID, *byTitle["b.pdf"].FolderID)
	assert.Equal(t, folders[0].ID, *byTitle["a.pdf"].FolderID)
	assert.Equal(t, folders[1].ID, *byTitle["c.pdf"].FolderID)
}

func TestSubmit_ReusesExistingFolderByExactName(t *testing.T) {
	fx := newFixture(t, time.Hour)
	existing := &models.Folder{SemesterID: "sem3", SubjectID: "dbms", Name: "Unit1"}
	require.NoError(t, fx.repos.Folders.Create(context.Background(), existing))
	other := &models.Folder{SemesterID: "sem3", SubjectID: "dbms", Name: "unit2"}
	require.NoError(t, fx.repos.Folders.Create(context.Background(), other))

	_, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files: []File{
			BytesFile("a.pdf", "Unit1/a.pdf", "application/pdf", pdfBytes),
			BytesFile("c.pdf", "Unit2/c.pdf", "application/pdf", pdfBytes),
		},
	})
	require.NoError(t, err)

	folders, err := fx.repos.Folders.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	assert.Len(t, folders, 3, "Unit2 differs from unit2 by case so it is created")

	notes, err := fx.repos.Notes.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	for _, n := range notes {
		if n.Title == "a.pdf" {
			assert.Equal(t, existing.ID, *n.FolderID)
		}
	}
}

func TestSubmit_ExplicitFolderOverridesPaths(t *testing.T) {
	fx := newFixture(t, time.Hour)
	folder := &models.Folder{SemesterID: "sem3", SubjectID: "dbms", Name: "Slides"}
	require.NoError(t, fx.repos.Folders.Create(context.Background(), folder))

	tgt := target()
	tgt.FolderID = &folder.ID
	_, err := fx.queue.Submit(context.Background(), Request{
		Target:   tgt,
		Uploader: "teacher-1",
		Files:    []File{BytesFile("a.pdf", "Unit1/a.pdf", "application/pdf", pdfBytes)},
	})
	require.NoError(t, err)

	folders, _ := fx.repos.Folders.ListByScope(context.Background(), scope())
	assert.Len(t, folders, 1)
	notes, _ := fx.repos.Notes.ListByScope(context.Background(), scope())
	require.Len(t, notes, 1)
	assert.Equal(t, folder.ID, *notes[0].FolderID)
}

func TestSubmit_ExplicitFolderMustMatchTarget(t *testing.T) {
	fx := newFixture(t, time.Hour)
	folder := &models.Folder{SemesterID: "sem9", SubjectID: "dbms", Name: "Slides"}
	require.NoError(t, fx.repos.Folders.Create(context.Background(), folder))

	tgt := target()
	tgt.FolderID = &folder.ID
	_, err := fx.queue.Submit(context.Background(), Request{
		Target:   tgt,
		Uploader: "teacher-1",
		Files:    []File{BytesFile("a.pdf", "", "application/pdf", pdfBytes)},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubmit_PartialFailureIsIsolated(t *testing.T) {
	fx := newFixture(t, 10*time.Millisecond)
	fx.blobs.SetFailPaths("_second.pdf")

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files: []File{
			BytesFile("first.pdf", "", "application/pdf", pdfBytes),
			BytesFile("second.pdf", "", "application/pdf", pdfBytes),
			BytesFile("third.pdf", "", "application/pdf", pdfBytes),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Blocked)

	statuses := map[string]Status{}
	for _, e := range res.Entries {
		statuses[e.Name] = e.Status
	}
	assert.Equal(t, map[string]Status{
		"first.pdf":  StatusSuccess,
		"second.pdf": StatusError,
		"third.pdf":  StatusSuccess,
	}, statuses)

	notes, _ := fx.repos.Notes.ListByScope(context.Background(), scope())
	assert.Len(t, notes, 2, "no note for the failed blob")

	// The queue is retained well past the confirmation delay.
	time.Sleep(30 * time.Millisecond)
	snap := fx.queue.Snapshot()
	assert.Equal(t, StateBlocked, snap.State)
	assert.Len(t, snap.Entries, 3)

	_, err = fx.queue.Submit(context.Background(), Request{
		Target: target(), Uploader: "teacher-1",
		Files: []File{BytesFile("retry.pdf", "", "application/pdf", pdfBytes)},
	})
	assert.ErrorIs(t, err, ErrQueueBlocked)

	assert.True(t, fx.queue.Acknowledge())
	assert.Equal(t, StateIdle, fx.queue.Snapshot().State)

	fx.blobs.SetFailPaths()
	res, err = fx.queue.Submit(context.Background(), Request{
		Target: target(), Uploader: "teacher-1",
		Files: []File{BytesFile("second.pdf", "", "application/pdf", pdfBytes)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
}

func TestSubmit_RejectsOversizedAndDisallowedFiles(t *testing.T) {
	fx := newFixture(t, time.Hour)

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files: []File{
			sizedFile("huge.pdf", "application/pdf", 60<<20),
			BytesFile("ok.pdf", "", "application/pdf", pdfBytes),
			BytesFile("bundle.zip", "", "application/zip", []byte("PK\x03\x04")),
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Notices, 2)
	assert.Equal(t, "huge.pdf", res.Notices[0].File)
	assert.Contains(t, res.Notices[0].Reason, "50 MiB")
	assert.Equal(t, "bundle.zip", res.Notices[1].File)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, "ok.pdf", res.Entries[0].Name)

	paths := fx.blobs.Paths()
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], "_ok.pdf"))
}

func TestSubmit_SniffsUndeclaredTypes(t *testing.T) {
	fx := newFixture(t, time.Hour)

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files: []File{
			BytesFile("scan", "", mediatypes.OctetStream, pdfBytes),
			BytesFile("tool", "", "", []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff")),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "application/pdf", res.Entries[0].ContentType)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "tool", res.Notices[0].File)
}

func TestSubmit_ClearsAfterConfirmationDelay(t *testing.T) {
	fx := newFixture(t, 20*time.Millisecond)

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:   target(),
		Uploader: "teacher-1",
		Files:    []File{BytesFile("a.pdf", "", "application/pdf", pdfBytes)},
	})
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, StateSettled, fx.queue.Snapshot().State)

	require.Eventually(t, func() bool {
		snap := fx.queue.Snapshot()
		return snap.State == StateIdle && len(snap.Entries) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSubmit_DefaultsToGeneralSubjectAndRootFolder(t *testing.T) {
	fx := newFixture(t, time.Hour)
	tgt := target()
	tgt.SubjectID = ""

	_, err := fx.queue.Submit(context.Background(), Request{
		Target:   tgt,
		Uploader: "teacher-1",
		Files:    []File{BytesFile("notes.pdf", "", "application/pdf", pdfBytes)},
	})
	require.NoError(t, err)

	general := scope()
	general.SubjectID = models.GeneralSubjectID
	notes, err := fx.repos.Notes.ListByScope(context.Background(), general)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].FolderID)
	assert.Equal(t, "notes.pdf", notes[0].Title)
	assert.Equal(t, int64(len(pdfBytes)), notes[0].Size)
	assert.True(t, strings.HasPrefix(notes[0].StoragePath, "notes/teacher-1/"))
	assert.Equal(t, "https://files.test/"+notes[0].StoragePath, notes[0].FileURL)
}

func TestSubmit_ValidatesTarget(t *testing.T) {
	fx := newFixture(t, time.Hour)

	_, err := fx.queue.Submit(context.Background(), Request{
		Target:   Target{DepartmentID: "cs"},
		Uploader: "teacher-1",
		Files:    []File{BytesFile("a.pdf", "", "application/pdf", pdfBytes)},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// gatedBlobs blocks every upload until release is closed.
type gatedBlobs struct {
	*blobmem.BlobStore
	started chan string
	release chan struct{}
}

func (g *gatedBlobs) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	g.started <- path
	<-g.release
	return g.BlobStore.Upload(ctx, path, r, contentType)
}

func TestSubmit_SnapshotShowsProgressAndIgnoresCancel(t *testing.T) {
	registry, err := mediatypes.NewRegistry()
	require.NoError(t, err)
	r := memory.NewRepositories()
	blobs := &gatedBlobs{
		BlobStore: blobmem.NewBlobStore("https://files.test"),
		started:   make(chan string, 2),
		release:   make(chan struct{}),
	}
	q := NewQueue(r.Folders, r.Notes, blobs, registry, Options{MaxFileSize: 50 << 20, ConfirmDelay: time.Hour},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		wg  sync.WaitGroup
		res *Result
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err = q.Submit(ctx, Request{
			Target:   target(),
			Uploader: "teacher-1",
			Files: []File{
				BytesFile("a.pdf", "", "application/pdf", pdfBytes),
				BytesFile("b.pdf", "", "application/pdf", pdfBytes),
			},
		})
	}()
	<-blobs.started
	<-blobs.started

	snap := q.Snapshot()
	assert.Equal(t, StateUploading, snap.State)
	for _, e := range snap.Entries {
		assert.Equal(t, StatusUploading, e.Status)
	}

	_, busyErr := q.Submit(context.Background(), Request{
		Target: target(), Uploader: "teacher-1",
		Files: []File{BytesFile("c.pdf", "", "application/pdf", pdfBytes)},
	})
	assert.ErrorIs(t, busyErr, ErrQueueBusy)

	cancel()
	close(blobs.release)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
}

func TestObjectPath(t *testing.T) {
	fx := newFixture(t, time.Hour)
	fx.queue.now = func() time.Time { return time.UnixMilli(1700000000123) }

	p := fx.queue.objectPath("user 1", "Lecture #1.pdf")
	prefix := "notes/user_1/1700000000123_"
	suffix := "_Lecture__1.pdf"

	require.True(t, strings.HasPrefix(p, prefix), p)
	require.True(t, strings.HasSuffix(p, suffix), p)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(p, prefix), suffix), 8)
	assert.NotEqual(t, p, fx.queue.objectPath("user 1", "Lecture #1.pdf"))
}
