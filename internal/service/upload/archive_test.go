package upload

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExpandArchives(t *testing.T) {
	archive := zipBytes(t, map[string][]byte{
		"intro.pdf":              pdfBytes,
		"Unit1/a.pdf":            pdfBytes,
		"__MACOSX/Unit1/._a.pdf": []byte("fork"),
		"Unit1/.DS_Store":        []byte("x"),
	})

	files, notices := expandArchives([]File{
		BytesFile("notes.zip", "", "application/zip", archive),
		BytesFile("plain.pdf", "", "application/pdf", pdfBytes),
	}, 50<<20)

	assert.Empty(t, notices)
	byPath := make(map[string]File)
	for _, f := range files {
		byPath[f.RelativePath] = f
	}
	require.Len(t, byPath, 3)
	assert.Equal(t, "a.pdf", byPath["Unit1/a.pdf"].Name)
	assert.Equal(t, int64(len(pdfBytes)), byPath["Unit1/a.pdf"].Size)
	assert.Contains(t, byPath, "intro.pdf")
	assert.Contains(t, byPath, "")
}

func TestExpandArchives_InvalidArchive(t *testing.T) {
	files, notices := expandArchives([]File{
		BytesFile("broken.zip", "", "", []byte("not a zip")),
	}, 50<<20)

	assert.Empty(t, files)
	require.Len(t, notices, 1)
	assert.Equal(t, "broken.zip", notices[0].File)
}

func TestExpandArchives_RejectsOversizedArchive(t *testing.T) {
	archive := zipBytes(t, map[string][]byte{"a.pdf": bytes.Repeat([]byte("x"), 4096)})

	files, notices := expandArchives([]File{
		BytesFile("big.zip", "", "application/zip", archive),
	}, int64(len(archive)-1))

	assert.Empty(t, files)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Reason, "exceeds")
}

// A source without io.ReaderAt is buffered, but still bounded by the limit.
func TestExpandArchives_StreamingSource(t *testing.T) {
	archive := zipBytes(t, map[string][]byte{"Unit1/a.pdf": pdfBytes})
	stream := func(size int64) File {
		return File{
			Name: "notes.zip",
			Size: size,
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(archive)), nil
			},
		}
	}

	files, notices := expandArchives([]File{stream(0)}, 50<<20)
	require.Empty(t, notices)
	require.Len(t, files, 1)
	assert.Equal(t, pdfBytes, readAll(t, files[0]))

	_, notices = expandArchives([]File{stream(0)}, int64(len(archive)-1))
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Reason, "exceeds")
}

func TestExpandArchives_MultipartUpload(t *testing.T) {
	archive := zipBytes(t, map[string][]byte{
		"Unit1/a.pdf": pdfBytes,
		"Unit1/b.pdf": pdfBytes,
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "unit1.zip")
	require.NoError(t, err)
	_, err = part.Write(archive)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// Zero memory forces the part into a temporary file.
	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files, notices := expandArchives([]File{MultipartFile(form.File["files"][0], "")}, 50<<20)
	require.Empty(t, notices)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, pdfBytes, readAll(t, f))
	}
}

func readAll(t *testing.T, f File) []byte {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestSubmit_ExpandsZipIntoFolders(t *testing.T) {
	fx := newFixture(t, time.Hour)
	archive := zipBytes(t, map[string][]byte{
		"Unit1/a.pdf": pdfBytes,
		"Unit1/b.pdf": pdfBytes,
		"root.pdf":    pdfBytes,
	})

	res, err := fx.queue.Submit(context.Background(), Request{
		Target:         target(),
		Uploader:       "teacher-1",
		Files:          []File{BytesFile("unit1.zip", "", "application/zip", archive)},
		ExpandArchives: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	assert.Empty(t, res.Notices)

	folders, err := fx.repos.Folders.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Unit1", folders[0].Name)

	notes, err := fx.repos.Notes.ListByScope(context.Background(), scope())
	require.NoError(t, err)
	require.Len(t, notes, 3)
	inFolder := 0
	for _, n := range notes {
		if n.FolderID != nil && *n.FolderID == folders[0].ID {
			inFolder++
		}
	}
	assert.Equal(t, 2, inFolder)
}
