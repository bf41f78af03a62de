package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
)

// LocalFileStore keeps files in a directory on local disk.
type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if dir == "" {
		dir = "./data/imports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

func (s *LocalFileStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(filepath.Clean(key)))
}

func (s *LocalFileStore) Save(_ context.Context, key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to persist file: %w", err)
	}
	return nil
}

func (s *LocalFileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

func (s *LocalFileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// S3FileStore keeps files under a key prefix of an S3 bucket.
type S3FileStore struct {
	client *awspkg.S3Client
	prefix string
}

func NewS3FileStore(client *awspkg.S3Client, prefix string) *S3FileStore {
	return &S3FileStore{client: client, prefix: prefix}
}

func (s *S3FileStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Upload(ctx, path.Join(s.prefix, key), "application/octet-stream", bytes.NewReader(data))
}

func (s *S3FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.Open(ctx, path.Join(s.prefix, key))
}

func (s *S3FileStore) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, path.Join(s.prefix, key))
}
