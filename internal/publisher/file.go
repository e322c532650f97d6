package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"marketpipe/internal/errors"
)

// FileStore keeps objects on the local filesystem as root/bucket/key
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Path returns the file backing bucket/key
func (s *FileStore) Path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

// PutObject writes body to root/bucket/key, replacing an existing file
func (s *FileStore) PutObject(ctx context.Context, bucket, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewPublicationError("publication cancelled", err)
	}
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(filepath.FromSlash(key)) {
		return errors.NewPublicationError(fmt.Sprintf("invalid object name %q/%q", bucket, key), nil)
	}

	path := s.Path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewPublicationError("failed to create bucket directory", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return errors.NewPublicationError("failed to write object", err).WithContext("path", path)
	}
	return nil
}
