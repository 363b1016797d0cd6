// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package export implements the preservation store export pipeline: list a
// site's Preservation Hold Library, download each item with duplicate
// handling, optionally re-upload to a blob target, and accumulate per-run
// counters. The pipeline is strictly sequential: one item, one call at a
// time.
package export

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/console"
	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"github.com/netSkope/spo-retention-tool/internal/site"
	"go.uber.org/zap"
)

// ContentStore is the slice of the SharePoint client the pipeline needs.
// Kept as an interface so tests can drive the pipeline without a server.
type ContentStore interface {
	ListPreservationItems(ctx context.Context, siteURL string, pageSize int) ([]sharepoint.Item, error)
	DownloadFile(ctx context.Context, siteURL, serverRelativeURL string) (io.ReadCloser, error)
}

// Pipeline exports one site's preservation store per ExportSite call.
type Pipeline struct {
	store       ContentStore
	target      UploadTarget // nil means downloads stay local
	policy      DuplicatePolicy
	downloadDir string
	pageSize    int
	console     *console.Console
	logger      *zap.Logger
	quiet       bool
}

// Options configures a Pipeline.
type Options struct {
	Store       ContentStore
	Target      UploadTarget
	Policy      DuplicatePolicy
	DownloadDir string
	PageSize    int
	Console     *console.Console
	Logger      *zap.Logger
	Quiet       bool
}

// NewPipeline builds a Pipeline from options.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		store:       opts.Store,
		target:      opts.Target,
		policy:      opts.Policy,
		downloadDir: opts.DownloadDir,
		pageSize:    opts.PageSize,
		console:     opts.Console,
		logger:      opts.Logger,
		quiet:       opts.Quiet,
	}
}

// ExportSite runs the export pipeline for one site. A missing preservation
// store is not an error: the summary comes back with LibraryExists false.
// Item-level failures are counted and the loop continues; only listing
// failures (connection-level) propagate.
func (p *Pipeline) ExportSite(ctx context.Context, rec site.Record) (*Summary, error) {
	summary := &Summary{
		SiteURL:       rec.URL,
		SiteTitle:     rec.Title,
		LibraryExists: true,
		Started:       time.Now(),
	}
	defer func() { summary.Elapsed = time.Since(summary.Started) }()

	items, err := p.store.ListPreservationItems(ctx, rec.URL, p.pageSize)
	if err != nil {
		if sharepoint.IsNotFound(err) {
			summary.LibraryExists = false
			p.console.Warnf("No preservation store on %s", rec.URL)
			p.logger.Info("Preservation store absent", zap.String("site", rec.URL))
			return summary, nil
		}
		return nil, err
	}

	siteDir := filepath.Join(p.downloadDir, siteSlug(rec.URL))
	if err := os.MkdirAll(siteDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	for i, item := range items {
		summary.Processed++
		pct := (i + 1) * 100 / len(items)

		if item.IsFolder {
			summary.SkippedContainer++
			continue
		}

		localName, localPath, skipped, err := p.placeLocally(siteDir, item)
		if err != nil {
			summary.Errored++
			summary.FailedNames = append(summary.FailedNames, item.LeafName)
			p.console.Errorf("[%3d%%] %s # download failed: %v", pct, item.LeafName, err)
			p.logger.Warn("Item download failed",
				zap.String("site", rec.URL),
				zap.String("item", item.LeafName),
				zap.Error(err))
			continue
		}
		if skipped {
			summary.SkippedDuplicate++
			if !p.quiet {
				p.console.Warnf("[%3d%%] %s # exists locally, skipped", pct, localName)
			}
			continue
		}

		n, err := p.download(ctx, rec.URL, item, localPath)
		if err != nil {
			summary.Errored++
			summary.FailedNames = append(summary.FailedNames, item.LeafName)
			p.console.Errorf("[%3d%%] %s # download failed: %v", pct, item.LeafName, err)
			p.logger.Warn("Item download failed",
				zap.String("site", rec.URL),
				zap.String("item", item.LeafName),
				zap.Error(err))
			continue
		}
		summary.Succeeded++
		summary.BytesDownloaded += n
		if !p.quiet {
			p.console.Successf("[%3d%%] %s (%d bytes)", pct, localName, n)
		}

		if p.target != nil {
			p.uploadLeg(ctx, localName, localPath, item, summary)
		}
	}

	p.logger.Info("Site export finished",
		zap.String("site", rec.URL),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped_container", summary.SkippedContainer),
		zap.Int("skipped_duplicate", summary.SkippedDuplicate),
		zap.Int("errored", summary.Errored),
		zap.Int64("bytes", summary.BytesDownloaded))

	return summary, nil
}

// placeLocally cleans the item name and applies the duplicate policy against
// the local directory. Returns the final name and full path, or skipped=true
// under the Skip policy when the file already exists.
func (p *Pipeline) placeLocally(siteDir string, item sharepoint.Item) (name, path string, skipped bool, err error) {
	name = CleanLeafName(item.LeafName)
	path = filepath.Join(siteDir, name)

	exists := fileExists(path)
	if !exists {
		return name, path, false, nil
	}

	switch p.policy {
	case Skip:
		return name, path, true, nil
	case Overwrite:
		if err := os.Remove(path); err != nil {
			return "", "", false, fmt.Errorf("failed to overwrite %s: %w", name, err)
		}
		return name, path, false, nil
	case Rename:
		free, err := nextFreeName(name, func(candidate string) (bool, error) {
			return fileExists(filepath.Join(siteDir, candidate)), nil
		})
		if err != nil {
			return "", "", false, err
		}
		return free, filepath.Join(siteDir, free), false, nil
	default:
		return "", "", false, fmt.Errorf("unknown duplicate policy %v", p.policy)
	}
}

// download streams the item to localPath and restamps the file times from
// the item metadata. Failing to set timestamps is logged but does not fail
// the download.
func (p *Pipeline) download(ctx context.Context, siteURL string, item sharepoint.Item, localPath string) (int64, error) {
	body, err := p.store.DownloadFile(ctx, siteURL, item.ServerRelativeURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	n, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return 0, fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	// Creation time is not settable portably; atime carries the created
	// stamp, mtime the modified stamp.
	if err := os.Chtimes(localPath, item.Created, item.Modified); err != nil {
		p.logger.Warn("Failed to set file timestamps",
			zap.String("path", localPath),
			zap.Error(err))
	}

	return n, nil
}

// uploadLeg applies the duplicate policy against the blob target and uploads
// the downloaded file. Upload failures never affect the download counters.
func (p *Pipeline) uploadLeg(ctx context.Context, localName, localPath string, item sharepoint.Item, summary *Summary) {
	blobName, skip, err := p.resolveBlobName(ctx, localName)
	if err == nil && skip {
		summary.UploadSkipped++
		if !p.quiet {
			p.console.Warnf("        %s # exists on %s, upload skipped", localName, p.target.Name())
		}
		return
	}
	if err == nil {
		err = p.target.Upload(ctx, blobName, localPath, BlobMetadata{
			Created:  item.Created,
			Modified: item.Modified,
			Author:   item.AuthorEmail,
			Editor:   item.EditorEmail,
		})
	}

	if err != nil {
		summary.UploadErrored++
		summary.UploadFailedNames = append(summary.UploadFailedNames, item.LeafName)
		p.console.Errorf("        %s # upload failed: %v", localName, err)
		p.logger.Warn("Item upload failed",
			zap.String("item", item.LeafName),
			zap.String("target", p.target.Name()),
			zap.Error(err))
		return
	}

	info, statErr := os.Stat(localPath)
	if statErr == nil {
		summary.BytesUploaded += info.Size()
	}
	summary.UploadSucceeded++
	if !p.quiet {
		p.console.Successf("        %s -> %s/%s", localName, p.target.Name(), blobName)
	}
}

// resolveBlobName applies the duplicate policy against the upload target,
// independently of how the local collision played out.
func (p *Pipeline) resolveBlobName(ctx context.Context, name string) (string, bool, error) {
	exists, err := p.target.Exists(ctx, name)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return name, false, nil
	}

	switch p.policy {
	case Skip:
		return name, true, nil
	case Overwrite:
		if err := p.target.Remove(ctx, name); err != nil {
			return "", false, err
		}
		return name, false, nil
	case Rename:
		free, err := nextFreeName(name, func(candidate string) (bool, error) {
			return p.target.Exists(ctx, candidate)
		})
		if err != nil {
			return "", false, err
		}
		return free, false, nil
	default:
		return "", false, fmt.Errorf("unknown duplicate policy %v", p.policy)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// siteSlug derives a filesystem-safe directory name for a site URL.
func siteSlug(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return site.Normalize(siteURL)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "root"
	}
	return site.Normalize(last)
}
