package storage

import "context"

// IObjectStorage S3-совместимое хранилище (MinIO)
type IObjectStorage interface {
	PutObject(ctx context.Context, path string, data []byte, contentType string) error
	GetObject(ctx context.Context, path string) ([]byte, error)
}
