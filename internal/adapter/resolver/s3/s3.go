// Package s3 resolves s3:// locators to presigned HTTP URLs on an S3-compatible store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Scheme is the locator scheme handled by this package.
const Scheme = "s3"

// Config holds the object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string // used by locators without a bucket (s3:///key)
	UseSSL    bool

	// Expiry is the lifetime of presigned URLs.
	Expiry time.Duration

	// VerifyObjects checks the object exists before presigning.
	VerifyObjects bool
}

// Resolver presigns GET URLs for s3:// locators.
type Resolver struct {
	logger *slog.Logger
	client *minio.Client
	cfg    Config
}

// New creates a Resolver. No request is made until Resolve or Upload is called.
func New(logger *slog.Logger, cfg Config) (*Resolver, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = time.Hour
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	return &Resolver{
		logger: logger.With(slog.String("adapter", "s3")),
		client: client,
		cfg:    cfg,
	}, nil
}

// ParseLocator splits s3://bucket/key. An empty bucket selects the default bucket.
func ParseLocator(locator, defaultBucket string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, Scheme+"://")
	if !ok {
		return "", "", domain.ErrUnsupportedScheme
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 locator: %w", domain.ErrUnknownContent)
	}
	return bucket, key, nil
}

// Resolve implements ports.LocatorResolver.
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	bucket, key, err := ParseLocator(locator, r.cfg.Bucket)
	if err != nil {
		return "", domain.NewResolutionError(locator, err)
	}

	if r.cfg.VerifyObjects {
		if _, err := r.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				err = fmt.Errorf("%s/%s: %w", bucket, key, domain.ErrUnknownContent)
			}
			return "", domain.NewResolutionError(locator, err)
		}
	}

	u, err := r.client.PresignedGetObject(ctx, bucket, key, r.cfg.Expiry, url.Values{})
	if err != nil {
		return "", domain.NewResolutionError(locator, err)
	}
	r.logger.Debug("presigned", slog.String("bucket", bucket), slog.String("key", key))
	return u.String(), nil
}

// Upload stores r under key in the default bucket and returns its s3:// locator.
func (r *Resolver) Upload(ctx context.Context, key string, rd io.Reader, size int64, contentType string) (string, error) {
	if r.cfg.Bucket == "" {
		return "", fmt.Errorf("upload %s: no default bucket configured", key)
	}
	_, err := r.client.PutObject(ctx, r.cfg.Bucket, key, rd, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s://%s/%s", Scheme, r.cfg.Bucket, key), nil
}

// Store implements ports.ContentStore. Objects are keyed by name under the
// default bucket.
func (r *Resolver) Store(ctx context.Context, name string, rd io.Reader) (string, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return r.Upload(ctx, strings.TrimPrefix(name, "/"), bytes.NewReader(data), int64(len(data)), contentType)
}

var (
	_ ports.LocatorResolver = (*Resolver)(nil)
	_ ports.ContentStore    = (*Resolver)(nil)
)
