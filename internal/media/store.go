// AngelaMos | 2026
// store.go

package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/nexusai/internal/config"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Store persists generated media and returns a URL the client can fetch.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Driver {
	case DriverS3:
		return NewS3Store(ctx, cfg.S3, cfg.PresignTTL)
	case DriverLocal, "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
	}
}

// NewKey returns a unique object key under prefix with an extension
// matching contentType.
func NewKey(prefix, contentType string) string {
	ext := ".bin"
	switch contentType {
	case "video/mp4":
		ext = ".mp4"
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	default:
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}

	day := time.Now().UTC().Format("2006/01/02")
	return path.Join(prefix, day, uuid.New().String()+ext)
}

type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local media dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid media key %q", key)
	}

	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create media subdir: %w", err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit media: %w", err)
	}

	return s.baseURL + clean, nil
}
