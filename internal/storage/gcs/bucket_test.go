package gcs

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name  string
		store BlobStore
		path  string
		want  string
	}{
		{
			name:  "default host",
			store: BlobStore{bucket: "notes-bucket"},
			path:  "notes/u1/1_ab_a.pdf",
			want:  "https://storage.googleapis.com/notes-bucket/notes/u1/1_ab_a.pdf",
		},
		{
			name:  "public base wins",
			store: BlobStore{bucket: "b", publicBase: "https://cdn.example.edu", emulatorHost: "http://localhost:4443"},
			path:  "/notes/x.pdf",
			want:  "https://cdn.example.edu/b/notes/x.pdf",
		},
		{
			name:  "emulator media link",
			store: BlobStore{bucket: "b", emulatorHost: "http://localhost:4443"},
			path:  "notes/u1/x.pdf",
			want:  "http://localhost:4443/storage/v1/b/b/o/notes%2Fu1%2Fx.pdf?alt=media",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.store.PublicURL(tt.path); got != tt.want {
				t.Errorf("PublicURL(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
