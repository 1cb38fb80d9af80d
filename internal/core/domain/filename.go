package domain

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ParsedName is the metadata inferred from an uploaded filename. The first
// underscore-delimited segment is the entity (company) name, the remainder
// the opaque reference code.
type ParsedName struct {
	EntityName    string
	ReferenceCode string
	Note          string
}

// ParseFilename derives entity name and reference code from a raw filename.
// Total and deterministic; never touches the filesystem.
func ParseFilename(filename string) ParsedName {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	idx := strings.Index(base, "_")
	if idx <= 0 {
		var note string
		if idx < 0 {
			note = "no underscore separator in filename"
		} else {
			note = "underscore at start of filename"
		}
		return ParsedName{
			EntityName: strings.TrimSpace(base),
			Note:       note,
		}
	}

	entity := strings.TrimSpace(base[:idx])
	reference := strings.TrimSpace(base[idx+1:])
	if entity == "" {
		// Whitespace-only prefix; fall back to the full base name.
		return ParsedName{
			EntityName: strings.TrimSpace(base),
			Note:       "empty entity segment, using full base name",
		}
	}

	return ParsedName{
		EntityName:    entity,
		ReferenceCode: reference,
	}
}

// NewStorageName produces the collision-free on-disk name for an upload.
// The result never contains path separators and is never derived from the
// user-supplied name beyond its extension.
func NewStorageName(originalFilename string) string {
	ext := filepath.Ext(filepath.Base(originalFilename))
	if strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	return uuid.NewString() + ext
}

var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MimeTypeForName resolves the content type from the file extension only,
// never from client-declared values.
func MimeTypeForName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
