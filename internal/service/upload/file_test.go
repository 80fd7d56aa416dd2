package upload

import "testing"

func TestImpliedFolder(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"a.pdf", ""},
		{"Unit1/a.pdf", "Unit1"},
		{"Unit1/deep/b.pdf", "Unit1"},
		{"/Unit2/c.pdf", "Unit2"},
		{`Unit3\d.pdf`, "Unit3"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := impliedFolder(tt.path); got != tt.want {
				t.Errorf("impliedFolder(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"a.pdf":            "a.pdf",
		"dir/a.pdf":        "a.pdf",
		`C:\docs\a.pdf`:    "a.pdf",
		"":                 "",
		"../../etc/passwd": "passwd",
	}
	for in, want := range tests {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
