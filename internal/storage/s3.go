package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/juyozufu/internal/config"
)

// AssetStore keeps catalog images addressable by key.
type AssetStore interface {
	// Upload writes data at key, replacing any existing object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// PublicURL returns the retrievable URL for key.
	PublicURL(key string) string
}

// S3Store stores images in an S3-compatible bucket (Supabase Storage or AWS).
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
	publicBase string
}

// NewS3Store builds a store from cfg. A configured endpoint switches the client
// to that S3-compatible service with static credentials.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: cfg.Bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}, nil
}

// Upload puts the object; S3 semantics overwrite an existing key.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("upload failed")
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}
	log.Debug().Str("key", key).Int("size", len(data)).Str("content_type", contentType).Str("etag", etag).Msg("uploaded object")
	return nil
}

// PublicURL joins the public base with the escaped key.
func (s *S3Store) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicBase + "/" + strings.Join(parts, "/")
}

// Ping checks the bucket is reachable with the configured credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}
