package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/debemdeboas/folio/internal/config"
)

// Store keeps uploaded images and hands out their public URLs.
type Store interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	// Delete removes an image previously returned by Put. Unknown URLs are ignored.
	Delete(ctx context.Context, publicURL string) error
}

var ErrForeignURL = errors.New("image URL does not belong to this store")

// objectName never reuses the client's filename so uploads cannot collide or escape
// the upload directory.
func objectName(filename, contentType string) string {
	return uuid.New().String() + Extension(contentType, filename)
}

type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/") + "/uploads/",
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(_ context.Context, filename, contentType string, body io.Reader) (string, error) {
	name := objectName(filename, contentType)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	hostLogger.Debug().Str("name", name).Msg("Stored image locally")
	return s.baseURL + name, nil
}

func (s *LocalStore) Delete(_ context.Context, publicURL string) error {
	name, ok := strings.CutPrefix(publicURL, s.baseURL)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return ErrForeignURL
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// NewStore builds the configured image store.
func NewStore(ctx context.Context, cfg config.ImagesConfig, secrets config.Secrets) (Store, error) {
	switch cfg.Store {
	case config.StoreS3:
		return NewS3Store(ctx, cfg.S3, secrets.AWSAccessKeyID, secrets.AWSSecretKey)
	case config.StoreLocal, "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.Store)
	}
}

// keyFromURL returns the object key of a URL under base, if it is one.
func keyFromURL(base, publicURL string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	u, err := url.Parse(publicURL)
	if err != nil || u.Host != b.Host {
		return "", false
	}
	key, ok := strings.CutPrefix(u.Path, strings.TrimRight(b.Path, "/")+"/")
	if !ok || key == "" {
		return "", false
	}
	return path.Clean(key), true
}
