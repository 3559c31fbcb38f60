package media

import (
	"context"
	"io"
)

// Uploader stores an image with an external host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}
