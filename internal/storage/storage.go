package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	appconfig "bucketgate/internal/config"
)

// ACL is the canned access-control label applied when an object is written.
type ACL string

const (
	ACLPrivate    ACL = ""
	ACLPublicRead ACL = "public-read"
)

type PutInput struct {
	Key           string
	Body          io.Reader
	ContentLength int64
	ContentType   string
	ACL           ACL
}

// ListInput requests one page of keys. ContinuationToken is opaque to
// callers; pass back ListPage.NextToken to fetch the following page.
type ListInput struct {
	Prefix            string
	ContinuationToken string
	MaxKeys           int32
}

type ListPage struct {
	Keys      []string
	NextToken string
	Truncated bool
}

// Backend is a single-bucket object store. Keys are used as given; callers
// own any prefixing.
type Backend interface {
	Put(ctx context.Context, in PutInput) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, in ListInput) (ListPage, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

func NewFromConfig(ctx context.Context, cfg appconfig.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case "", appconfig.DriverS3:
		return NewS3Client(ctx, cfg)
	case appconfig.DriverMinio:
		return NewMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
