package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"echo-diary/internal/config"
	"echo-diary/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	imageKeyPrefix     = "diary-images"
	imageContentType   = "image/png"
	defaultContentType = "application/octet-stream"
)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// ObjectStore stores generated images in an S3-compatible bucket (MinIO in practice).
// A nil *ObjectStore is valid and behaves as an absent store.
type ObjectStore struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	ttl        time.Duration
	publicBase string
	now        func() time.Time
}

// NewObjectStore returns nil when the endpoint or credentials are not configured.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, nil
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.Secure))
		o.UsePathStyle = true
	})
	return &ObjectStore{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		ttl:        cfg.PresignTTL(),
		publicBase: strings.TrimSpace(cfg.PublicBaseURL),
		now:        time.Now,
	}, nil
}

func endpointURL(endpoint string, secure bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if secure {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (s *ObjectStore) objectKey(accountID string) string {
	return fmt.Sprintf("%s/%s/%s/%s.png", imageKeyPrefix, accountID, s.now().UTC().Format("2006/01/02"), uuid.New())
}

// normalizeKey turns a previously issued URL back into a bare object key.
func (s *ObjectStore) normalizeKey(ref string) string {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	p := strings.TrimPrefix(u.Path, "/")
	return strings.TrimPrefix(p, s.bucket+"/")
}

// applyPublicBase swaps scheme and host for the configured public base, keeping the signed path and query.
func applyPublicBase(signed, publicBase string) string {
	if publicBase == "" {
		return signed
	}
	base, err := url.Parse(publicBase)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return signed
	}
	u, err := url.Parse(signed)
	if err != nil {
		return signed
	}
	u.Scheme = base.Scheme
	u.Host = base.Host
	return u.String()
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head bucket: %w", err)
	}
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload stores PNG bytes under the account's dated prefix and returns the object key.
func (s *ObjectStore) Upload(ctx context.Context, data []byte, accountID string) (string, bool) {
	if s == nil || len(data) == 0 {
		return "", false
	}
	if err := s.ensureBucket(ctx); err != nil {
		logger.Warn("storage.upload.bucket_failed", "bucket", s.bucket, "err", err)
		return "", false
	}

	key := s.objectKey(accountID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(imageContentType),
	})
	if err != nil {
		logger.Warn("storage.upload.failed", "key", key, "err", err)
		return "", false
	}
	return key, true
}

// PresignedURL issues a time-limited GET URL; ttl <= 0 uses the configured window.
func (s *ObjectStore) PresignedURL(ctx context.Context, ref string, ttl time.Duration) (string, bool) {
	if s == nil || ref == "" {
		return "", false
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.normalizeKey(ref)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		logger.Warn("storage.presign.failed", "ref", ref, "err", err)
		return "", false
	}
	return applyPublicBase(req.URL, s.publicBase), true
}

// Fetch reads an object back together with its stored content type.
func (s *ObjectStore) Fetch(ctx context.Context, ref string) ([]byte, string, bool) {
	if s == nil || ref == "" {
		return nil, "", false
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.normalizeKey(ref)),
	})
	if err != nil {
		logger.Warn("storage.fetch.failed", "ref", ref, "err", err)
		return nil, "", false
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		logger.Warn("storage.fetch.read_failed", "ref", ref, "err", err)
		return nil, "", false
	}
	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}
	return data, contentType, true
}
