package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

// FileUploader хранит фотографии игроков.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// PlayerPhotoKey builds the object key of a player's photo.
func PlayerPhotoKey(playerID, ext string) string {
	return fmt.Sprintf("players/%s/photo%s", playerID, ext)
}

// KeyFromURL recovers the object key from a public URL built by
// GetPublicURL with the same base.
func KeyFromURL(publicBaseURL, location string) (string, bool) {
	base := strings.TrimSuffix(publicBaseURL, "/") + "/"
	if base == "/" || !strings.HasPrefix(location, base) {
		return "", false
	}
	key := strings.TrimPrefix(location, base)
	return key, key != ""
}
