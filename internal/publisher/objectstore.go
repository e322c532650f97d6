package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"marketpipe/internal/config"
	"marketpipe/internal/errors"
)

// Storage backends selectable in configuration
const (
	BackendS3   = "s3"
	BackendGCS  = "gcs"
	BackendFile = "file"
)

// ObjectStore uploads a single object, overwriting any existing object
// under the same bucket and key
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// NewObjectStore builds the backend named by cfg.Backend
func NewObjectStore(ctx context.Context, cfg config.PublishConfig, logger *slog.Logger) (ObjectStore, error) {
	logger.InfoContext(ctx, "object_store_selected", slog.String("backend", cfg.Backend))

	switch cfg.Backend {
	case BackendS3:
		return NewS3Store(ctx, cfg)
	case BackendGCS:
		return NewGCSStore(ctx, cfg)
	case BackendFile:
		return NewFileStore(cfg.LocalDir), nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unknown publish backend %q", cfg.Backend), nil)
	}
}
