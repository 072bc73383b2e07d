package cli

import (
	"context"
	"iter"

	"bucketgate/internal/gateway"
)

type objectGateway interface {
	Upload(ctx context.Context, name, path string, opts gateway.UploadOptions) (gateway.UploadResult, error)
	URL(ctx context.Context, name string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Objects(ctx context.Context) iter.Seq2[string, error]
}

type listOptions struct {
	All bool
}

type uploadOptions struct {
	Public  bool
	Replace bool
}
