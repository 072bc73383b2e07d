package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	appconfig "bucketgate/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ s3API       = (*s3.Client)(nil)
	_ s3Presigner = (*s3.PresignClient)(nil)
	_ Backend     = (*S3Client)(nil)
)

type S3Client struct {
	api            s3API
	presigner      s3Presigner
	bucket         string
	requestTimeout time.Duration
}

func NewS3Client(ctx context.Context, cfg appconfig.StoreConfig) (*S3Client, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return nil, errors.New("s3 region is required")
	}
	endpoint, err := appconfig.ValidateEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &Error{Op: "load aws config", Kind: KindInvalid, Err: err}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Client{
		api:            client,
		presigner:      s3.NewPresignClient(client),
		bucket:         bucket,
		requestTimeout: cfg.RequestTimeout,
	}, nil
}

func (c *S3Client) Put(ctx context.Context, in PutInput) error {
	if c.api == nil {
		return errors.New("s3 api client is not configured")
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(in.Key),
		Body:          in.Body,
		ContentLength: aws.Int64(in.ContentLength),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.ACL == ACLPublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return &Error{Op: "put object", Key: in.Key, Kind: classifyS3(err), Err: err}
	}
	return nil
}

func (c *S3Client) Exists(ctx context.Context, key string) (bool, error) {
	if c.api == nil {
		return false, errors.New("s3 api client is not configured")
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	kind := classifyS3(err)
	if kind == KindNotFound {
		return false, nil
	}
	return false, &Error{Op: "head object", Key: key, Kind: kind, Err: err}
}

func (c *S3Client) Delete(ctx context.Context, key string) error {
	if c.api == nil {
		return errors.New("s3 api client is not configured")
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &Error{Op: "delete object", Key: key, Kind: classifyS3(err), Err: err}
	}
	return nil
}

func (c *S3Client) List(ctx context.Context, in ListInput) (ListPage, error) {
	if c.api == nil {
		return ListPage{}, errors.New("s3 api client is not configured")
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if in.Prefix != "" {
		input.Prefix = aws.String(in.Prefix)
	}
	if in.ContinuationToken != "" {
		input.ContinuationToken = aws.String(in.ContinuationToken)
	}
	if in.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(in.MaxKeys)
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()
	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, &Error{Op: "list objects", Key: in.Prefix, Kind: classifyS3(err), Err: err}
	}

	page := ListPage{
		Keys:      make([]string, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
		NextToken: aws.ToString(out.NextContinuationToken),
	}
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		page.Keys = append(page.Keys, *obj.Key)
	}
	return page, nil
}

func (c *S3Client) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if c.presigner == nil {
		return "", errors.New("s3 presign client is not configured")
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", &Error{Op: "presign get object", Key: key, Kind: classifyS3(err), Err: err}
	}
	return req.URL, nil
}
