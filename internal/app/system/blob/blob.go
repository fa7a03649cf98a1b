// Package blob stores uploaded media bytes outside the database.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// UploadInput is one object to write.
type UploadInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store is the object storage used by the media feature.
type Store interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, in UploadInput) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// AllowedExtensions maps accepted file extensions to their content type.
var AllowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// ContentTypeFor returns the content type for name's extension and whether
// the extension is allowed.
func ContentTypeFor(name string) (string, bool) {
	ct, ok := AllowedExtensions[strings.ToLower(path.Ext(name))]
	return ct, ok
}

// SafeName reduces an uploaded file name to letters, digits, dot, dash,
// and underscore. Other runes become '-'.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}

// NewKey builds media/YYYY/MM/<uuid>-<safe name> for an upload at now.
func NewKey(now time.Time, originalName string) string {
	now = now.UTC()
	return fmt.Sprintf("media/%04d/%02d/%s-%s", now.Year(), int(now.Month()), uuid.NewString(), SafeName(originalName))
}
