// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/azureblob"
	awss3 "github.com/netSkope/spo-retention-tool/internal/s3"
)

// BlobMetadata travels with every uploaded blob.
type BlobMetadata struct {
	Created  time.Time
	Modified time.Time
	Author   string
	Editor   string
}

// UploadTarget abstracts the blob store the pipeline re-uploads into.
// Implementations exist for Azure Blob SAS containers and S3 buckets.
type UploadTarget interface {
	// Name identifies the target in logs and summaries.
	Name() string
	// Exists probes for a blob collision.
	Exists(ctx context.Context, blobName string) (bool, error)
	// Upload stores a local file under blobName with metadata.
	Upload(ctx context.Context, blobName, localPath string, meta BlobMetadata) error
	// Remove deletes an existing blob (Overwrite policy).
	Remove(ctx context.Context, blobName string) error
}

// azureTarget adapts azureblob.Client to the UploadTarget interface.
type azureTarget struct {
	client *azureblob.Client
}

// NewAzureTarget wraps an Azure Blob client as an upload target.
func NewAzureTarget(client *azureblob.Client) UploadTarget {
	return &azureTarget{client: client}
}

func (t *azureTarget) Name() string {
	return "azure:" + t.client.Container()
}

func (t *azureTarget) Exists(ctx context.Context, blobName string) (bool, error) {
	return t.client.Exists(ctx, blobName)
}

func (t *azureTarget) Upload(ctx context.Context, blobName, localPath string, meta BlobMetadata) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	return t.client.Put(ctx, blobName, file, info.Size(), azureblob.Metadata{
		Created:  meta.Created,
		Modified: meta.Modified,
		Author:   meta.Author,
		Editor:   meta.Editor,
	})
}

func (t *azureTarget) Remove(ctx context.Context, blobName string) error {
	return t.client.Delete(ctx, blobName)
}

// s3Target adapts the S3 uploader to the UploadTarget interface.
type s3Target struct {
	uploader *awss3.Uploader
}

// NewS3Target wraps an S3 uploader as an upload target.
func NewS3Target(uploader *awss3.Uploader) UploadTarget {
	return &s3Target{uploader: uploader}
}

func (t *s3Target) Name() string {
	return "s3:" + t.uploader.Bucket()
}

func (t *s3Target) Exists(ctx context.Context, blobName string) (bool, error) {
	return t.uploader.Exists(ctx, blobName)
}

func (t *s3Target) Upload(ctx context.Context, blobName, localPath string, meta BlobMetadata) error {
	metadata := map[string]string{
		"createddate":  meta.Created.UTC().Format(time.RFC3339),
		"modifieddate": meta.Modified.UTC().Format(time.RFC3339),
	}
	if author := azureblob.SanitizeMetadataValue(meta.Author); author != "" {
		metadata["author"] = author
	}
	if editor := azureblob.SanitizeMetadataValue(meta.Editor); editor != "" {
		metadata["editor"] = editor
	}
	return t.uploader.UploadFile(ctx, blobName, localPath, metadata)
}

func (t *s3Target) Remove(ctx context.Context, blobName string) error {
	return t.uploader.Delete(ctx, blobName)
}
