package publisher

import (
	"context"
	"log/slog"

	"marketpipe/internal/config"
	"marketpipe/internal/dataset"
	"marketpipe/internal/errors"
	"marketpipe/internal/exporter"
	"marketpipe/internal/infrastructure"
)

// Publisher serializes datasets to CSV and uploads them
type Publisher struct {
	store  ObjectStore
	logger *slog.Logger
}

// New creates a publisher writing to store
func New(store ObjectStore, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: infrastructure.WithComponent(logger, "publisher"),
	}
}

// Publish uploads frame as CSV to bucket/key, overwriting any existing object
func (p *Publisher) Publish(ctx context.Context, frame *dataset.Frame, bucket, key string) error {
	body, err := exporter.MarshalCSV(frame)
	if err != nil {
		return errors.NewPublicationError("failed to encode dataset", err)
	}

	if err := p.store.PutObject(ctx, bucket, key, body, config.CSVContentType); err != nil {
		if errors.TypeOf(err) == "" {
			err = errors.NewPublicationError("upload failed", err)
		}
		p.logger.ErrorContext(ctx, "publication_failed",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.InfoContext(ctx, "publication_succeeded",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int("bytes", len(body)),
		slog.Int("rows", frame.Len()))
	return nil
}
