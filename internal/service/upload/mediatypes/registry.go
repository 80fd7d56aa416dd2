// Package mediatypes holds the upload allow-list and resolves the media type
// of an incoming file.
package mediatypes

import (
	"embed"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const registryFile = "config/media_types.yaml"

// OctetStream is what browsers send when they do not know the type.
const OctetStream = "application/octet-stream"

type typeSpec struct {
	MIME       string   `yaml:"mime"`
	Extensions []string `yaml:"extensions"`
}

type category struct {
	Name  string     `yaml:"name"`
	Types []typeSpec `yaml:"types"`
}

type registryFileSpec struct {
	Categories []category `yaml:"categories"`
}

// Registry is the immutable allow-list.
type Registry struct {
	byMIME      map[string]string // mime -> category
	byExtension map[string]string // ".pdf" -> mime
}

// NewRegistry loads the embedded allow-list.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile(registryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", registryFile, err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var spec registryFileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media types: %w", err)
	}

	r := &Registry{
		byMIME:      make(map[string]string),
		byExtension: make(map[string]string),
	}
	for _, c := range spec.Categories {
		for _, t := range c.Types {
			m := Normalize(t.MIME)
			if m == "" {
				return nil, fmt.Errorf("category %q has an entry without a mime type", c.Name)
			}
			r.byMIME[m] = c.Name
			for _, ext := range t.Extensions {
				r.byExtension[strings.ToLower(ext)] = m
			}
		}
	}
	if len(r.byMIME) == 0 {
		return nil, fmt.Errorf("media type registry is empty")
	}
	return r, nil
}

// Allowed reports whether the media type may be uploaded.
func (r *Registry) Allowed(mediaType string) bool {
	_, ok := r.byMIME[Normalize(mediaType)]
	return ok
}

// Category returns "document", "image" or "video" for an allowed type.
func (r *Registry) Category(mediaType string) string {
	return r.byMIME[Normalize(mediaType)]
}

// Resolve picks the media type to validate and store. A declared type wins
// unless it is empty or application/octet-stream, in which case the content
// is sniffed and, failing that, the file extension is consulted.
func (r *Registry) Resolve(filename, declared string, head []byte) string {
	declared = Normalize(declared)
	if declared != "" && declared != OctetStream {
		return declared
	}

	if len(head) > 0 {
		detected := mimetype.Detect(head)
		for m := detected; m != nil; m = m.Parent() {
			if t := Normalize(m.String()); r.Allowed(t) {
				return t
			}
		}
		if t := Normalize(detected.String()); t != OctetStream {
			if byExt, ok := r.byExtension[strings.ToLower(filepath.Ext(filename))]; ok && t == "application/zip" {
				// OOXML documents sniff as zip when the head is truncated.
				return byExt
			}
			return t
		}
	}

	if t, ok := r.byExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return OctetStream
}

// Normalize lower-cases a media type and drops its parameters.
func Normalize(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
