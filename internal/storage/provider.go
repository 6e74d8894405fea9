package storage

import (
	"context"
	"io"
)

type Object struct {
	Name string
	Size int64
}

// Provider is the object store holding raw upload bodies. Keys are
// namespaced by session prefix so a whole session's uploads can be removed
// in one call when it ends.
type Provider interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	DeleteObjects(ctx context.Context, bucket, prefix string) error
}
