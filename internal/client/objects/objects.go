// Package objects stores binary blobs (profile images) in a remote object
// store and computes their public retrieval URLs.
package objects

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wellbeing/internal/client/config"
)

// ErrExists is returned by Put with upsert=false when the path is taken.
var ErrExists = errors.New("object already exists")

type Object struct {
	Bucket      string
	Path        string
	Data        []byte
	ContentType string
	Fingerprint string
}

// Store is the object store contract. PublicURL is deterministic and makes
// no network call.
type Store interface {
	Put(ctx context.Context, obj Object, upsert bool) error
	PublicURL(bucket, path string) (string, error)
}

// New builds the backend selected by cfg.ObjectBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ObjectBackend {
	case config.BackendS3:
		return NewS3Store(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case config.BackendCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	default:
		return nil, fmt.Errorf("unknown object backend %q", cfg.ObjectBackend)
	}
}
