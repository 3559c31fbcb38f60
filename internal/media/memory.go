package media

import (
	"context"
	"io"
	"sync"
)

// MemoryUploader keeps uploaded files in memory and serves fake URLs.
// Test use only.
type MemoryUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

// NewMemoryUploader creates a new MemoryUploader.
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{uploads: make(map[string][]byte)}
}

// Upload records the file contents and returns a deterministic URL.
func (u *MemoryUploader) Upload(_ context.Context, file io.Reader, publicID string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads[publicID] = data

	return "https://media.test/" + publicID, nil
}

// Stored returns the stored contents for a public ID.
func (u *MemoryUploader) Stored(publicID string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.uploads[publicID]
	return data, ok
}
