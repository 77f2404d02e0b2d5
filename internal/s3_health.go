package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lychee-technology/chartpreset"
)

// S3HeadBucketAPI is the client surface the bucket health check needs.
type S3HeadBucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// ValidateS3Config performs basic sanity checks on the S3 settings DuckDB
// uses for s3:// datasets.
func ValidateS3Config(cfg chartpreset.DuckDBConfig) error {
	if !cfg.EnableS3 {
		return nil
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey == "" {
		return fmt.Errorf("s3AccessKey provided without s3SecretKey")
	}
	if cfg.S3SecretKey != "" && cfg.S3AccessKey == "" {
		return fmt.Errorf("s3SecretKey provided without s3AccessKey")
	}
	return nil
}

// S3BucketHealthCheck verifies the preset bucket exists and is reachable
// with the configured credentials.
func S3BucketHealthCheck(ctx context.Context, client S3HeadBucketAPI, bucket string, timeout time.Duration) error {
	if client == nil || bucket == "" {
		return fmt.Errorf("s3 preset bucket not configured")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s unreachable: %w", bucket, err)
	}
	return nil
}
