package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryUploader keeps objects in memory. Used when R2 is not configured
// and in tests.
type MemoryUploader struct {
	mu            sync.Mutex
	publicBaseURL string
	objects       map[string][]byte
}

func NewMemoryUploader(publicBaseURL string) *MemoryUploader {
	return &MemoryUploader{
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		objects:       make(map[string][]byte),
	}
}

func (u *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	u.mu.Lock()
	u.objects[key] = buf.Bytes()
	u.mu.Unlock()
	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *MemoryUploader) GetPublicURL(key string) string {
	if key == "" {
		return ""
	}
	return u.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}

// Object returns the stored bytes of key.
func (u *MemoryUploader) Object(key string) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return data, nil
}
