// AngelaMos | 2026
// storage.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/carterperez-dev/learnhub/internal/config"
)

var ErrUploadUnsupported = errors.New("object store does not accept uploads")

// Object is an upload handed to the store.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store keeps video assets and resolves playable URLs for them.
type Store interface {
	Put(ctx context.Context, obj Object) error
	URL(ctx context.Context, key string) (string, error)
}

func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "public", "":
		return NewPublicStore(cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// PublicStore serves objects from a public bucket or CDN. Uploads go
// through a separate pipeline.
type PublicStore struct {
	base *url.URL
}

func NewPublicStore(baseURL string) (*PublicStore, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse public base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("public base url %q must be absolute", baseURL)
	}

	return &PublicStore{base: u}, nil
}

func (s *PublicStore) Put(_ context.Context, _ Object) error {
	return ErrUploadUnsupported
}

func (s *PublicStore) URL(_ context.Context, key string) (string, error) {
	u := *s.base
	u.Path = path.Join(u.Path, key)
	return u.String(), nil
}
