package publisher

import (
	"bytes"
	"context"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"marketpipe/internal/config"
	"marketpipe/internal/errors"
)

// GCSStore writes objects to Google Cloud Storage
type GCSStore struct {
	service *storage.Service
}

// NewGCSStore creates a Cloud Storage client. Without a credentials file the
// application default credentials are used.
func NewGCSStore(ctx context.Context, cfg config.PublishConfig, extra ...option.ClientOption) (*GCSStore, error) {
	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadWriteScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	service, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError("failed to create Cloud Storage service", err)
	}
	return &GCSStore{service: service}, nil
}

// PutObject uploads body to bucket/key
func (s *GCSStore) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	object := &storage.Object{Name: key, ContentType: contentType}
	_, err := s.service.Objects.Insert(bucket, object).
		Media(bytes.NewReader(body), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return errors.NewPublicationError("Cloud Storage upload failed", err).
			WithContext("bucket", bucket).
			WithContext("key", key)
	}
	return nil
}
