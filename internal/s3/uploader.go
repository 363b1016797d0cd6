// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package s3 is the alternate upload backend for preservation exports when
// the destination is an S3 bucket instead of an Azure Blob container.
package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/netSkope/spo-retention-tool/internal/config"
	"go.uber.org/zap"
)

// Uploader handles S3 uploads with multipart support.
type Uploader struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *zap.Logger
}

// NewUploader creates an S3 uploader from the tool configuration.
// Credentials come from the SDK default chain (environment variables,
// shared credentials file, IAM role). AWS_ENDPOINT_URL selects a custom
// endpoint for LocalStack testing.
func NewUploader(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	// Explicit static credentials bypass the default chain (smoketests/local).
	if key := os.Getenv("SPO_RETENTION_AWS_ACCESS_KEY_ID"); key != "" {
		secret := os.Getenv("SPO_RETENTION_AWS_SECRET_ACCESS_KEY")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for LocalStack
			logger.Info("Using custom S3 endpoint", zap.String("endpoint", endpoint))
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB per part
		u.Concurrency = 3
	})

	return &Uploader{
		client:   client,
		uploader: uploader,
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		logger:   logger,
	}, nil
}

// Bucket returns the destination bucket name.
func (u *Uploader) Bucket() string { return u.bucket }

// Exists probes for an object under the export prefix.
func (u *Uploader) Exists(ctx context.Context, name string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.key(name)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("object probe failed: %w", err)
	}
	return true, nil
}

// UploadFile uploads a local file with the given object metadata.
// Multipart is handled automatically for large files.
func (u *Uploader) UploadFile(ctx context.Context, name, filePath string, metadata map[string]string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(u.bucket),
		Key:      aws.String(u.key(name)),
		Body:     file,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	u.logger.Info("File uploaded to S3",
		zap.String("bucket", u.bucket),
		zap.String("key", u.key(name)),
		zap.Int64("size", fileInfo.Size()))
	return nil
}

// Delete removes an object under the export prefix.
func (u *Uploader) Delete(ctx context.Context, name string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	u.logger.Info("Object deleted",
		zap.String("bucket", u.bucket),
		zap.String("key", u.key(name)))
	return nil
}

func (u *Uploader) key(name string) string {
	return path.Join(u.prefix, name)
}
