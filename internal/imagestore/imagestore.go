// Package imagestore uploads and deletes images on S3-compatible object
// storage and maps them to public URLs.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured   = errors.New("image storage is not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// extensions maps accepted content types to object key extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration. PublicURL is the base
// that uploaded keys are served from; when empty it is derived from the
// endpoint and bucket.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
	Prefix    string
}

func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func (c Config) baseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

// Store is the image host. A Store built from a disabled Config rejects
// uploads with ErrNotConfigured and ignores deletes.
type Store struct {
	cfg    Config
	client s3Client
}

func New(cfg Config) *Store {
	s := &Store{cfg: cfg}
	if cfg.Enabled() {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Upload stores body under a fresh key in folder and returns its public URL.
func (s *Store) Upload(ctx context.Context, folder, contentType string, body io.Reader, size int64) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	key := path.Join(s.cfg.Prefix, folder, uuid.NewString()+ext)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.cfg.baseURL() + "/" + key, nil
}

// Delete removes the object behind imageURL. URLs that do not point at this
// store are ignored.
func (s *Store) Delete(ctx context.Context, imageURL string) error {
	if s.client == nil || imageURL == "" {
		return nil
	}
	key, ok := s.keyFor(imageURL)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

func (s *Store) keyFor(imageURL string) (string, bool) {
	base := s.cfg.baseURL() + "/"
	if !strings.HasPrefix(imageURL, base) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(imageURL, base))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
