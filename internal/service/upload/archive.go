package upload

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// maxArchiveEntries bounds how many files one archive may expand to.
const maxArchiveEntries = 1000

// isArchive reports whether the file is a zip archive to expand.
func isArchive(f File) bool {
	return strings.EqualFold(path.Ext(f.Name), ".zip") ||
		strings.EqualFold(strings.TrimSpace(f.ContentType), "application/zip")
}

// expandArchives replaces every zip archive in files with the files it
// contains. Entries keep their path inside the archive as RelativePath, so
// a top-level directory in the archive becomes a folder like a directory
// picked from disk. Unreadable archives become notices.
func expandArchives(files []File, maxFileSize int64) ([]File, []Notice) {
	out := make([]File, 0, len(files))
	var notices []Notice

	for _, f := range files {
		if !isArchive(f) || f.Open == nil {
			out = append(out, f)
			continue
		}
		entries, err := readArchive(f, maxFileSize)
		if err != nil {
			notices = append(notices, Notice{File: baseName(f.Name), Reason: err.Error()})
			continue
		}
		out = append(out, entries...)
	}
	return out, notices
}

func readArchive(f File, maxFileSize int64) ([]File, error) {
	if maxFileSize > 0 && f.Size > maxFileSize {
		return nil, fmt.Errorf("archive exceeds the %d MiB limit", maxFileSize>>20)
	}
	zr, closer, err := openArchive(f, maxFileSize)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var files []File
	for i, zf := range zr.File {
		if zf.FileInfo().IsDir() || skipArchiveEntry(zf.Name) {
			continue
		}
		if len(files) == maxArchiveEntries {
			return nil, fmt.Errorf("archive has more than %d files", maxArchiveEntries)
		}
		files = append(files, archiveFile(f, i, zf, maxFileSize))
	}
	return files, nil
}

// openArchive reads the zip directory of f. Uploads are read in place
// through io.ReaderAt; other sources are buffered up to the size limit.
// The returned closer releases the underlying file.
func openArchive(f File, maxFileSize int64) (*zip.Reader, io.Closer, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("could not open archive: %w", err)
	}

	ra, ok := rc.(io.ReaderAt)
	size := f.Size
	if !ok || size <= 0 {
		var r io.Reader = rc
		if maxFileSize > 0 {
			r = io.LimitReader(rc, maxFileSize+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("could not read archive: %w", err)
		}
		if maxFileSize > 0 && int64(len(data)) > maxFileSize {
			rc.Close()
			return nil, nil, fmt.Errorf("archive exceeds the %d MiB limit", maxFileSize>>20)
		}
		ra, size = bytes.NewReader(data), int64(len(data))
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("not a valid zip archive")
	}
	return zr, rc, nil
}

// archiveFile describes entry index of archive. Open reopens the archive,
// so entries can be uploaded concurrently and after readArchive returns.
func archiveFile(archive File, index int, zf *zip.File, maxFileSize int64) File {
	return File{
		Name:         path.Base(zf.Name),
		RelativePath: zf.Name,
		Size:         int64(zf.UncompressedSize64),
		Open: func() (io.ReadCloser, error) {
			zr, closer, err := openArchive(archive, maxFileSize)
			if err != nil {
				return nil, err
			}
			if index >= len(zr.File) {
				closer.Close()
				return nil, fmt.Errorf("archive entry %q is gone", zf.Name)
			}
			rc, err := zr.File[index].Open()
			if err != nil {
				closer.Close()
				return nil, err
			}
			entry := entryReader{Reader: rc, closers: []io.Closer{rc, closer}}
			if maxFileSize > 0 {
				// Headers can understate the size
				entry.Reader = io.LimitReader(rc, maxFileSize+1)
			}
			return entry, nil
		},
	}
}

// skipArchiveEntry drops unsafe paths plus the resource forks and hidden
// files added by archivers.
func skipArchiveEntry(name string) bool {
	name = strings.ReplaceAll(name, `\`, "/")
	if !fs.ValidPath(name) || strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}

// entryReader reads one archive entry and closes it along with the archive.
type entryReader struct {
	io.Reader
	closers []io.Closer
}

func (e entryReader) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
