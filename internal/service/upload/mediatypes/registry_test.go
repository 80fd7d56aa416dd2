package mediatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Allowed(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		mediaType string
		want      bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"text/plain; charset=utf-8", true},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", true},
		{"image/png", true},
		{"video/mp4", true},
		{"application/zip", false},
		{"application/x-msdownload", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Allowed(tt.mediaType))
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	pdf := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	zip := []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")

	tests := []struct {
		name     string
		filename string
		declared string
		head     []byte
		want     string
	}{
		{name: "declared wins", filename: "a.bin", declared: "application/pdf", head: png, want: "application/pdf"},
		{name: "sniff pdf", filename: "a", declared: "", head: pdf, want: "application/pdf"},
		{name: "sniff octet stream", filename: "scan", declared: OctetStream, head: png, want: "image/png"},
		{name: "zip stays zip", filename: "bundle.zip", declared: "", head: zip, want: "application/zip"},
		{name: "extension fallback", filename: "clip.MP4", declared: "", head: nil, want: "video/mp4"},
		{name: "unknown", filename: "blob", declared: "", head: nil, want: OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.filename, tt.declared, tt.head))
		})
	}
}

func TestParse_RejectsEmptyRegistry(t *testing.T) {
	_, err := Parse([]byte("categories: []\n"))
	assert.Error(t, err)
}
