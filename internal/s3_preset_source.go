package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// S3PresetAPI is the subset of the S3 client the preset source needs.
type S3PresetAPI interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

type s3PresetSource struct {
	client     S3PresetAPI
	downloader *manager.Downloader
	bucket     string
	prefix     string
	logger     *zap.Logger
}

// NewS3PresetSource creates a source reading preset files stored under
// bucket/prefix. Objects in nested "directories" are included.
func NewS3PresetSource(client S3PresetAPI, bucket, prefix string, logger *zap.Logger) PresetSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &s3PresetSource{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *s3PresetSource) LoadDocuments(ctx context.Context) ([]PresetDocument, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, chartpreset.NewPresetError(chartpreset.ErrorTypeInternal, chartpreset.ErrCodeSourceUnavailable, "failed to list presets in S3").
			WithDetail("bucket", s.bucket).
			WithDetail("prefix", s.prefix).
			WithCause(err)
	}

	docs := make([]PresetDocument, 0, len(keys))
	for _, key := range keys {
		buf := manager.NewWriteAtBuffer([]byte{})
		_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
				// deleted between list and get
				s.logger.Warn("preset object disappeared", zap.String("bucket", s.bucket), zap.String("key", key))
				continue
			}
			return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
		}
		docs = append(docs, PresetDocument{
			Name:   PresetNameFromFile(key),
			Origin: fmt.Sprintf("s3://%s/%s", s.bucket, key),
			Data:   buf.Bytes(),
		})
	}
	return docs, nil
}

// listKeys returns the preset object keys under the prefix. S3 lists keys in
// ascending order, which keeps the load order deterministic.
func (s *s3PresetSource) listKeys(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") || !IsPresetFile(key) {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
