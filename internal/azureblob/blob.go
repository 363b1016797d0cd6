// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package azureblob is a minimal Azure Blob Storage client for SAS-token
// container access. The SAS grant carries the whole credential, so requests
// are plain HTTP against the blob endpoint rather than going through an SDK
// credential chain.
package azureblob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Storage service version pinned for the HEAD existence probe.
const apiVersion = "2019-12-12"

// Metadata is attached to uploaded blobs as x-ms-meta-* headers.
type Metadata struct {
	Created  time.Time
	Modified time.Time
	Author   string
	Editor   string
}

// Client writes blobs into one SAS-scoped container.
type Client struct {
	httpClient *http.Client
	accountURL string
	container  string
	sasToken   string
	logger     *zap.Logger
}

// NewClient creates a client for <accountURL>/<container> using the given
// SAS token (leading "?" optional).
func NewClient(accountURL, container, sasToken string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		accountURL: strings.TrimRight(accountURL, "/"),
		container:  container,
		sasToken:   strings.TrimPrefix(sasToken, "?"),
		logger:     logger,
	}
}

// Container returns the target container name.
func (c *Client) Container() string { return c.container }

// Exists probes for a blob with a HEAD request. A 404 means absent.
func (c *Client) Exists(ctx context.Context, blobName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.blobURL(blobName), nil)
	if err != nil {
		return false, fmt.Errorf("failed to build HEAD request: %w", err)
	}
	req.Header.Set("x-ms-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("blob probe failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("blob probe for %q returned %d", blobName, resp.StatusCode)
	}
}

// Put uploads body as a block blob with the given metadata.
func (c *Client) Put(ctx context.Context, blobName string, body io.Reader, length int64, meta Metadata) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.blobURL(blobName), body)
	if err != nil {
		return fmt.Errorf("failed to build PUT request: %w", err)
	}
	req.ContentLength = length
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("x-ms-meta-createddate", meta.Created.UTC().Format(time.RFC3339))
	req.Header.Set("x-ms-meta-modifieddate", meta.Modified.UTC().Format(time.RFC3339))
	if author := SanitizeMetadataValue(meta.Author); author != "" {
		req.Header.Set("x-ms-meta-author", author)
	}
	if editor := SanitizeMetadataValue(meta.Editor); editor != "" {
		req.Header.Set("x-ms-meta-editor", editor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("blob upload of %q returned %d: %s",
			blobName, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.logger.Info("Blob uploaded",
		zap.String("container", c.container),
		zap.String("blob", blobName),
		zap.Int64("size", length))
	return nil
}

// Delete removes a blob. Deleting an absent blob is an error from the
// service; callers probe first.
func (c *Client) Delete(ctx context.Context, blobName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.blobURL(blobName), nil)
	if err != nil {
		return fmt.Errorf("failed to build DELETE request: %w", err)
	}
	req.Header.Set("x-ms-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blob delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("blob delete of %q returned %d", blobName, resp.StatusCode)
	}

	c.logger.Info("Blob deleted",
		zap.String("container", c.container),
		zap.String("blob", blobName))
	return nil
}

func (c *Client) blobURL(blobName string) string {
	u := fmt.Sprintf("%s/%s/%s", c.accountURL, c.container, url.PathEscape(blobName))
	if c.sasToken != "" {
		u += "?" + c.sasToken
	}
	return u
}

// SanitizeMetadataValue strips every character other than letters, digits,
// '@', '.' and '-'. Blob metadata headers reject most other characters.
func SanitizeMetadataValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '@' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
