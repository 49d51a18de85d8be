package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSignature = errors.New("invalid or expired signature")

// DiskStore keeps media under a root directory and signs its own playback
// URLs with an HMAC over path and expiry, served back through the API's
// /media handler.
type DiskStore struct {
	root    string
	baseURL string
	secret  []byte
}

func NewDiskStore(root, baseURL, secret string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("disk store: root directory is empty")
	}
	if secret == "" {
		return nil, fmt.Errorf("disk store: signing secret is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: %w", err)
	}

	return &DiskStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  []byte(secret),
	}, nil
}

func (s *DiskStore) SignedURL(path string, ttl time.Duration) (string, error) {
	clean, err := s.cleanPath(path)
	if err != nil {
		return "", err
	}

	exp := time.Now().Add(ttl).Unix()
	v := url.Values{}
	v.Set("exp", strconv.FormatInt(exp, 10))
	v.Set("sig", s.sign(clean, exp))

	return fmt.Sprintf("%s/media/%s?%s", s.baseURL, clean, v.Encode()), nil
}

// Verify checks the signature and expiry a signed URL carries. Used by the
// media file handler before serving.
func (s *DiskStore) Verify(path string, exp int64, sig string) error {
	clean, err := s.cleanPath(path)
	if err != nil {
		return err
	}
	if time.Now().Unix() > exp {
		return ErrInvalidSignature
	}
	want := s.sign(clean, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *DiskStore) DownloadToTemp(ctx context.Context, path string) (string, error) {
	clean, err := s.cleanPath(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil {
		return "", fmt.Errorf("blob open: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "voxlog-video-*"+filepath.Ext(clean))
	if err != nil {
		return "", fmt.Errorf("blob temp: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("blob copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("blob close: %w", err)
	}

	return tmp.Name(), nil
}

// Save streams an upload into the store, creating parent directories as
// needed. Returns the number of bytes written.
func (s *DiskStore) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	clean, err := s.cleanPath(path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("blob mkdir: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("blob create: %w", err)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		dst.Close()
		os.Remove(full)
		return 0, fmt.Errorf("blob write: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(full)
		return 0, fmt.Errorf("blob close: %w", err)
	}

	return n, nil
}

func (s *DiskStore) Delete(ctx context.Context, path string) error {
	clean, err := s.cleanPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob delete: %w", err)
	}
	return nil
}

// Open returns the blob for serving. Callers must have verified the
// signature first.
func (s *DiskStore) Open(path string) (*os.File, error) {
	clean, err := s.cleanPath(path)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
}

func (s *DiskStore) sign(path string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\x00%d", path, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *DiskStore) cleanPath(path string) (string, error) {
	clean := strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+path)), "/")
	if clean == "" || clean == "." || strings.Contains(path, "..") {
		return "", fmt.Errorf("blob path %q is invalid", path)
	}
	return clean, nil
}
