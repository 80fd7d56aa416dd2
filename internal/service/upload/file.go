package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"path"
	"strings"
)

// File is one file picked for upload.
type File struct {
	Name string
	// RelativePath is set when the file was picked as part of a directory,
	// e.g. "Unit1/slides/a.pdf".
	RelativePath string
	Size         int64
	ContentType  string
	Open         func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content.
func BytesFile(name, relativePath, contentType string, data []byte) File {
	return File{
		Name:         name,
		RelativePath: relativePath,
		Size:         int64(len(data)),
		ContentType:  contentType,
		Open: func() (io.ReadCloser, error) {
			return bytesReader{bytes.NewReader(data)}, nil
		},
	}
}

// bytesReader keeps io.ReaderAt visible, which io.NopCloser hides.
type bytesReader struct {
	*bytes.Reader
}

func (bytesReader) Close() error { return nil }

// MultipartFile wraps a parsed multipart part.
func MultipartFile(fh *multipart.FileHeader, relativePath string) File {
	return File{
		Name:         fh.Filename,
		RelativePath: relativePath,
		Size:         fh.Size,
		ContentType:  fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// impliedFolder returns the top-level directory of the relative path, or ""
// when the file sits at the root of the selection.
func impliedFolder(relativePath string) string {
	p := strings.Trim(strings.ReplaceAll(relativePath, `\`, "/"), "/")
	dir, _, found := strings.Cut(p, "/")
	if !found {
		return ""
	}
	return strings.TrimSpace(dir)
}

// baseName strips any directory from a client supplied filename.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// safeObjectName keeps object keys readable while removing characters that
// need escaping in URLs.
func safeObjectName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
