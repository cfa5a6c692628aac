package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads a finished output file to durable storage and returns
// its public URL.
type Publisher interface {
	Publish(ctx context.Context, path string) (url string, err error)
}

// S3Config holds the configuration for the S3 publisher.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Publisher implements Publisher against an S3 bucket.
type S3Publisher struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Publisher creates a new S3Publisher.
func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Publisher{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Publish uploads the file at path under its base name and returns the
// public URL.
func (p *S3Publisher) Publish(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is constructed internally
	if err != nil {
		return "", fmt.Errorf("open output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := filepath.Base(path)
	if _, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key), nil
}

// Compile-time check that S3Publisher implements Publisher.
var _ Publisher = (*S3Publisher)(nil)
