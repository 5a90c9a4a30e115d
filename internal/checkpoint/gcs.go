package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// GCSConfig locates the checkpoint object.
type GCSConfig struct {
	Bucket string
	Object string
}

// GCSStore keeps the checkpoint in a Cloud Storage object. Object writes are
// atomic, so no temp object is needed.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

var _ enricher.CheckpointStore = (*GCSStore)(nil)

// NewGCSStore creates a GCS-backed checkpoint store.
func NewGCSStore(client *storage.Client, cfg GCSConfig) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if strings.TrimSpace(cfg.Object) == "" {
		return nil, fmt.Errorf("object name is required")
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

// URI returns the gs:// location of the checkpoint.
func (s *GCSStore) URI() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.object)
}

// Load returns the saved offset, or 0 when the object does not exist.
func (s *GCSStore) Load(ctx context.Context) (int, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open checkpoint object: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("read checkpoint object: %w", err)
	}
	return Parse(data)
}

// Save overwrites the checkpoint object with index.
func (s *GCSStore) Save(ctx context.Context, index int) error {
	if err := validate(index); err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"
	writer.ChunkSize = 0
	if _, err := writer.Write(Format(index)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write checkpoint object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write checkpoint object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close checkpoint writer: %w", err)
	}
	return nil
}
