// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package retention wires the menu actions: version-policy mutations through
// the admin service, status reporting, and the preservation store export
// pipeline. One action runs at a time; every action fetches what it needs,
// prints its outcome and returns to the menu.
package retention

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/config"
	"github.com/netSkope/spo-retention-tool/internal/console"
	"github.com/netSkope/spo-retention-tool/internal/export"
	"github.com/netSkope/spo-retention-tool/internal/report"
	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"github.com/netSkope/spo-retention-tool/internal/site"
	"go.uber.org/zap"
)

// Admin is the slice of the SharePoint client the actions mutate through.
type Admin interface {
	ListSites(ctx context.Context) ([]sharepoint.SiteInfo, error)
	SetTenantAutoTrim(ctx context.Context, enabled bool) error
	SetSiteAutoTrim(ctx context.Context, siteURL string, enabled bool) error
	CreateVersionTrimJob(ctx context.Context, siteURL string, mode sharepoint.TrimJobMode, threshold int) error
}

// Tool holds the collaborators shared by all menu actions.
type Tool struct {
	cfg      *config.Config
	admin    Admin
	store    export.ContentStore
	target   export.UploadTarget // nil when no upload backend is configured
	console  *console.Console
	selector *site.Selector
	logger   *zap.Logger
}

// NewTool assembles the action set.
func NewTool(cfg *config.Config, admin Admin, store export.ContentStore, target export.UploadTarget, cons *console.Console, logger *zap.Logger) *Tool {
	return &Tool{
		cfg:      cfg,
		admin:    admin,
		store:    store,
		target:   target,
		console:  cons,
		selector: site.NewSelector(cons, logger),
		logger:   logger,
	}
}

// EnableTenantAutoTrim turns on automatic version trimming tenant-wide.
func (t *Tool) EnableTenantAutoTrim(ctx context.Context) error {
	ok, err := t.console.Confirm("Enable automatic version trimming for the whole tenant?")
	if err != nil || !ok {
		return err
	}

	if err := t.admin.SetTenantAutoTrim(ctx, true); err != nil {
		return err
	}
	t.console.Successf("Tenant-wide automatic version trimming enabled.")
	return nil
}

// EnableSiteAutoTrim turns on automatic version trimming for selected sites.
func (t *Tool) EnableSiteAutoTrim(ctx context.Context) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	enabled := 0
	for _, rec := range selected {
		if err := t.admin.SetSiteAutoTrim(ctx, rec.URL, true); err != nil {
			if isConnectionError(err) {
				return err
			}
			t.console.Errorf("%s # %v", rec.URL, err)
			t.logger.Warn("Failed to enable site auto-trim",
				zap.String("site", rec.URL), zap.Error(err))
			continue
		}
		enabled++
		t.console.Successf("%s # auto-trim enabled", rec.URL)
	}

	t.console.Printf("Enabled on %d of %d site(s).\n", enabled, len(selected))
	return nil
}

// StatusCheck reports each selected site's preservation store to a CSV file:
// whether the library exists, how many items it holds and their total size.
func (t *Tool) StatusCheck(ctx context.Context) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	csvReport, err := report.NewCSVReport(t.cfg.ReportDir)
	if err != nil {
		return err
	}
	defer csvReport.Close()

	for _, rec := range selected {
		row, err := t.statusRow(ctx, rec)
		if err != nil {
			return err
		}
		if err := csvReport.WriteRow(row); err != nil {
			return err
		}

		switch row.Status {
		case "ok":
			t.console.Successf("%s # %d item(s), %.2f MB", rec.URL, row.ItemCount, row.SizeMB)
		case "no-store":
			t.console.Warnf("%s # no preservation store", rec.URL)
		default:
			t.console.Errorf("%s # %s", rec.URL, row.ErrorMessage)
		}
	}

	t.console.Printf("Status report written to %s\n", csvReport.Path())
	return nil
}

// CleanupByAge enqueues version-deletion batch jobs keyed by an age cutoff.
func (t *Tool) CleanupByAge(ctx context.Context) error {
	return t.cleanup(ctx, sharepoint.TrimByAge, "Delete versions older than how many days?")
}

// CleanupByCount enqueues version-deletion batch jobs keyed by a retained
// major-version limit.
func (t *Tool) CleanupByCount(ctx context.Context) error {
	return t.cleanup(ctx, sharepoint.TrimByCount, "Keep how many major versions?")
}

// EnableAndCleanup enables per-site auto-trim and enqueues a cleanup job in
// one pass over the selected sites.
func (t *Tool) EnableAndCleanup(ctx context.Context) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	mode, threshold, err := t.promptTrimJob()
	if err != nil {
		return err
	}

	done := 0
	for _, rec := range selected {
		if err := t.admin.SetSiteAutoTrim(ctx, rec.URL, true); err != nil {
			if isConnectionError(err) {
				return err
			}
			t.console.Errorf("%s # enable failed: %v", rec.URL, err)
			continue
		}
		if err := t.admin.CreateVersionTrimJob(ctx, rec.URL, mode, threshold); err != nil {
			if isConnectionError(err) {
				return err
			}
			t.console.Errorf("%s # cleanup job failed: %v", rec.URL, err)
			continue
		}
		done++
		t.console.Successf("%s # auto-trim enabled, cleanup job enqueued", rec.URL)
	}

	t.console.Printf("Completed on %d of %d site(s).\n", done, len(selected))
	return nil
}

// ReviewStore lists the preservation store contents of the selected sites
// without downloading anything.
func (t *Tool) ReviewStore(ctx context.Context) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	for _, rec := range selected {
		items, err := t.store.ListPreservationItems(ctx, rec.URL, t.cfg.PageSize)
		if err != nil {
			if sharepoint.IsNotFound(err) {
				t.console.Warnf("%s # no preservation store", rec.URL)
				continue
			}
			return err
		}

		var files int
		var total int64
		t.console.Printf("\n%s (%s)\n", rec.Title, rec.URL)
		for _, item := range items {
			if item.IsFolder {
				continue
			}
			files++
			total += item.SizeBytes
			t.console.Printf("  %-60s %12d  %s\n",
				item.LeafName, item.SizeBytes, item.Modified.Format("2006-01-02 15:04"))
		}
		t.console.Printf("  %d file(s), %.2f MB\n", files, float64(total)/(1024*1024))
	}

	return nil
}

// DownloadStore runs the export pipeline over the selected sites and writes
// the run log.
func (t *Tool) DownloadStore(ctx context.Context) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	policy, err := export.ParseDuplicatePolicy(t.cfg.DuplicatePolicy)
	if err != nil {
		return err
	}

	pipeline := export.NewPipeline(export.Options{
		Store:       t.store,
		Target:      t.target,
		Policy:      policy,
		DownloadDir: t.cfg.DownloadDir,
		PageSize:    t.cfg.PageSize,
		Console:     t.console,
		Logger:      t.logger,
		Quiet:       t.cfg.Quiet,
	})

	var summaries []*export.Summary
	for _, rec := range selected {
		t.console.Printf("\nExporting %s (%s)\n", rec.Title, rec.URL)
		summary, err := pipeline.ExportSite(ctx, rec)
		if err != nil {
			if isConnectionError(err) {
				return err
			}
			t.console.Errorf("%s # export failed: %v", rec.URL, err)
			t.logger.Warn("Site export failed",
				zap.String("site", rec.URL), zap.Error(err))
			continue
		}
		summaries = append(summaries, summary)
		t.printSummary(summary)
	}

	if len(summaries) > 0 {
		logPath, err := report.WriteRunLog(t.cfg.ReportDir, summaries)
		if err != nil {
			return err
		}
		t.console.Printf("Run log written to %s\n", logPath)
	}
	return nil
}

func (t *Tool) cleanup(ctx context.Context, mode sharepoint.TrimJobMode, prompt string) error {
	selected, err := t.selectSites(ctx)
	if err != nil {
		return err
	}

	threshold, err := t.promptInt(prompt)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, rec := range selected {
		if err := t.admin.CreateVersionTrimJob(ctx, rec.URL, mode, threshold); err != nil {
			if isConnectionError(err) {
				return err
			}
			t.console.Errorf("%s # %v", rec.URL, err)
			t.logger.Warn("Failed to enqueue trim job",
				zap.String("site", rec.URL), zap.Error(err))
			continue
		}
		enqueued++
		t.console.Successf("%s # trim job enqueued (%s=%d)", rec.URL, mode, threshold)
	}

	t.console.Printf("Enqueued on %d of %d site(s).\n", enqueued, len(selected))
	return nil
}

// statusRow inspects one site's preservation store for the CSV report. A
// missing library and item-level listing failures are recorded, not fatal;
// connection failures propagate and abort the check.
func (t *Tool) statusRow(ctx context.Context, rec site.Record) (report.StatusRow, error) {
	row := report.StatusRow{
		SiteURL:   rec.URL,
		Title:     rec.Title,
		Timestamp: time.Now(),
	}

	items, err := t.store.ListPreservationItems(ctx, rec.URL, t.cfg.PageSize)
	if err != nil {
		if isConnectionError(err) {
			return row, err
		}
		if sharepoint.IsNotFound(err) {
			row.Status = "no-store"
			return row, nil
		}
		row.Status = "error"
		row.ErrorMessage = err.Error()
		t.logger.Warn("Status check failed",
			zap.String("site", rec.URL), zap.Error(err))
		return row, nil
	}

	row.LibraryExists = true
	row.Status = "ok"
	var total int64
	for _, item := range items {
		if item.IsFolder {
			continue
		}
		row.ItemCount++
		total += item.SizeBytes
	}
	row.SizeMB = float64(total) / (1024 * 1024)
	return row, nil
}

// selectSites enumerates the tenant and runs the interactive selector.
func (t *Tool) selectSites(ctx context.Context) ([]site.Record, error) {
	infos, err := t.admin.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	return t.selector.Select(site.NewRecords(infos))
}

func (t *Tool) promptTrimJob() (sharepoint.TrimJobMode, int, error) {
	line, err := t.console.ReadLine("Cleanup by (1) age in days or (2) version count? ")
	if err != nil {
		return 0, 0, err
	}

	switch line {
	case "1":
		threshold, err := t.promptInt("Delete versions older than how many days?")
		return sharepoint.TrimByAge, threshold, err
	case "2":
		threshold, err := t.promptInt("Keep how many major versions?")
		return sharepoint.TrimByCount, threshold, err
	default:
		return 0, 0, fmt.Errorf("invalid choice %q", line)
	}
}

func (t *Tool) promptInt(prompt string) (int, error) {
	line, err := t.console.ReadLine(prompt + " ")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive number, got %q", line)
	}
	return n, nil
}

// isConnectionError reports endpoint/login failures, which abort the whole
// menu action instead of being counted per site.
func isConnectionError(err error) bool {
	var connErr *sharepoint.ConnectionError
	return errors.As(err, &connErr)
}

func (t *Tool) printSummary(s *export.Summary) {
	if !s.LibraryExists {
		return
	}
	t.console.Printf(
		"Summary: processed %d, downloaded %d, skipped %d folder(s) and %d duplicate(s), %d failed, %.2f MB in %s\n",
		s.Processed, s.Succeeded, s.SkippedContainer, s.SkippedDuplicate,
		s.Errored, s.SizeMB(), s.Elapsed.Round(time.Millisecond))
	if t.target != nil {
		t.console.Printf("Upload:  %d uploaded, %d skipped, %d failed, %d byte(s)\n",
			s.UploadSucceeded, s.UploadSkipped, s.UploadErrored, s.BytesUploaded)
	}
}
