package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// R2Storage stores objects in a Cloudflare R2 bucket through the S3 API.
// Objects are served from the bucket's public domain.
type R2Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewR2Storage creates an S3 client pointed at the account's R2 endpoint.
func NewR2Storage(ctx context.Context, cfg R2Config, logger *slog.Logger) (*R2Storage, error) {
	if cfg.BucketName == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("r2: bucket name and credentials are required")
	}
	if cfg.PublicURL == "" {
		return nil, errors.New("r2: public URL is required to serve gallery images")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, errors.New("r2: account ID is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	logger.Info("initialized R2 storage", "bucket", cfg.BucketName, "public_url", cfg.PublicURL)

	return &R2Storage{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    logger,
	}, nil
}

// Put uploads data. With MaxSize set, the body is buffered through a limit
// check first because the S3 API needs to know when the body ends.
func (s *R2Storage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if err := checkKey(key); err != nil {
		return opErr("put", key, err)
	}

	body := data
	if opts.MaxSize > 0 {
		buf, err := io.ReadAll(io.LimitReader(data, opts.MaxSize+1))
		if err != nil {
			return opErr("put", key, err)
		}
		if int64(len(buf)) > opts.MaxSize {
			return opErr("put", key, ErrTooLarge)
		}
		body = bytes.NewReader(buf)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return opErr("put", key, mapS3Error(err))
	}

	s.logger.Debug("stored object in R2", "key", key, "etag", aws.ToString(out.ETag))
	return nil
}

// Get downloads the object at key.
func (s *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := checkKey(key); err != nil {
		return nil, ObjectInfo{}, opErr("get", key, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, ObjectInfo{}, opErr("get", key, mapS3Error(err))
	}

	return out.Body, ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
	}, nil
}

// Delete removes the object. S3 does not report missing keys on delete.
func (s *R2Storage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return opErr("delete", key, err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return opErr("delete", key, mapS3Error(err))
	}

	s.logger.Debug("deleted object from R2", "key", key)
	return nil
}

// URL returns the object's address on the public bucket domain.
func (s *R2Storage) URL(key string) string {
	return s.publicURL + "/" + strings.TrimPrefix(key, "/")
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}

// mapS3Error translates SDK errors into the package's sentinel errors.
func mapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrNotFound
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.ErrorMessage())
		}
	}

	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		switch status.HTTPStatusCode() {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden:
			return ErrAccessDenied
		}
	}

	return fmt.Errorf("r2: %w", err)
}

// Compile-time check
var _ Storage = (*R2Storage)(nil)
