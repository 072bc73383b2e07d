package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	appconfig "bucketgate/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const minioACLHeader = "x-amz-acl"

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

var (
	_ minioAPI = (*minio.Client)(nil)
	_ Backend  = (*MinioClient)(nil)
)

// MinioClient talks to S3-compatible services through minio-go. Its list
// continuation token is the last key of the previous page.
type MinioClient struct {
	api            minioAPI
	bucket         string
	requestTimeout time.Duration
}

func NewMinioClient(cfg appconfig.StoreConfig) (*MinioClient, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("minio bucket is required")
	}
	endpoint, err := appconfig.ValidateEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("minio credentials are required")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: u.Scheme == "https",
		Region: strings.TrimSpace(cfg.Region),
	}
	if cfg.UsePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(u.Host, opts)
	if err != nil {
		return nil, &Error{Op: "create minio client", Kind: KindInvalid, Err: err}
	}

	return &MinioClient{
		api:            client,
		bucket:         bucket,
		requestTimeout: cfg.RequestTimeout,
	}, nil
}

func (c *MinioClient) Put(ctx context.Context, in PutInput) error {
	if c.api == nil {
		return errors.New("minio client is not configured")
	}

	opts := minio.PutObjectOptions{
		ContentType:      in.ContentType,
		DisableMultipart: true,
	}
	if in.ACL == ACLPublicRead {
		opts.UserMetadata = map[string]string{minioACLHeader: string(ACLPublicRead)}
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	if _, err := c.api.PutObject(ctx, c.bucket, in.Key, in.Body, in.ContentLength, opts); err != nil {
		return &Error{Op: "put object", Key: in.Key, Kind: classifyMinio(err), Err: err}
	}
	return nil
}

func (c *MinioClient) Exists(ctx context.Context, key string) (bool, error) {
	if c.api == nil {
		return false, errors.New("minio client is not configured")
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	_, err := c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	kind := classifyMinio(err)
	if kind == KindNotFound {
		return false, nil
	}
	return false, &Error{Op: "stat object", Key: key, Kind: kind, Err: err}
}

func (c *MinioClient) Delete(ctx context.Context, key string) error {
	if c.api == nil {
		return errors.New("minio client is not configured")
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	if err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &Error{Op: "remove object", Key: key, Kind: classifyMinio(err), Err: err}
	}
	return nil
}

func (c *MinioClient) List(ctx context.Context, in ListInput) (ListPage, error) {
	if c.api == nil {
		return ListPage{}, errors.New("minio client is not configured")
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	objects := c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:     in.Prefix,
		StartAfter: in.ContinuationToken,
		Recursive:  true,
		MaxKeys:    int(in.MaxKeys),
	})

	page := ListPage{Keys: make([]string, 0)}
	for obj := range objects {
		if obj.Err != nil {
			return ListPage{}, &Error{Op: "list objects", Key: in.Prefix, Kind: classifyMinio(obj.Err), Err: obj.Err}
		}
		// The channel streams every page; stop one key past the limit.
		if in.MaxKeys > 0 && len(page.Keys) == int(in.MaxKeys) {
			page.Truncated = true
			page.NextToken = page.Keys[len(page.Keys)-1]
			break
		}
		page.Keys = append(page.Keys, obj.Key)
	}
	return page, nil
}

func (c *MinioClient) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if c.api == nil {
		return "", errors.New("minio client is not configured")
	}

	u, err := c.api.PresignedGetObject(ctx, c.bucket, key, expires, nil)
	if err != nil {
		return "", &Error{Op: "presign get object", Key: key, Kind: classifyMinio(err), Err: err}
	}
	return u.String(), nil
}
