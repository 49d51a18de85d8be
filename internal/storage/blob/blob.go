package blob

import (
	"context"
	"time"
)

// Store is where the uploaded source media lives. SignedURL is best-effort for
// playback links; DownloadToTemp hands the caller a local copy it must remove.
type Store interface {
	SignedURL(path string, ttl time.Duration) (string, error)
	DownloadToTemp(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}
