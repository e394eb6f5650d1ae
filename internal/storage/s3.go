// Package storage uploads export documents to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const putTimeout = 30 * time.Second

// Config holds the settings of an S3-compatible bucket.
// Works with AWS S3, MinIO, Cloudflare R2 and similar services.
type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // optional, for S3-compatible services
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes blobs to a single bucket
type S3Store struct {
	client objectPutter
	bucket string
}

// NewS3Store creates a store from static or ambient AWS credentials
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, clientOptions(cfg)...)

	logger.Info("initialized S3 storage",
		logger.String("bucket", cfg.Bucket),
		logger.String("region", cfg.Region),
		logger.String("endpoint", cfg.Endpoint),
	)
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func loadOptions(cfg Config) []func(*config.LoadOptions) error {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	return opts
}

func clientOptions(cfg Config) []func(*s3.Options) {
	if cfg.Endpoint == "" {
		return nil
	}
	return []func(*s3.Options){func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// MinIO and most S3-compatible services need path-style addressing
		o.UsePathStyle = true
	}}
}

// Put uploads body under key
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	logger.Ctx(ctx).Debug("uploaded object",
		logger.String("bucket", s.bucket),
		logger.String("key", key),
		logger.Int("bytes", len(body)),
	)
	return nil
}
