package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Read for unknown keys.
var ErrNotFound = errors.New("storage: object not found")

// Store persists uploaded garden photos.
type Store interface {
	// Write stores data under key and returns the canonical key.
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// UploadKey builds the object key for a user's upload. Anonymous uploads are
// grouped under "anonymous".
func UploadKey(userID, imageID, ext string) string {
	owner := strings.TrimSpace(userID)
	if owner == "" {
		owner = "anonymous"
	}
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("uploads/%s/%s.%s", owner, imageID, strings.TrimPrefix(ext, "."))
}

// NewImageID returns a fresh upload identifier.
func NewImageID() string {
	return uuid.NewString()
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}
