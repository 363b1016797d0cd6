// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package report writes the persisted artifacts of a run: the CSV status
// report (status-check mode) and the plain-text run log (download mode).
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/export"
)

// StatusRow is one per-site line of the status-check CSV report.
type StatusRow struct {
	SiteURL       string
	Title         string
	LibraryExists bool
	ItemCount     int
	SizeMB        float64
	Timestamp     time.Time
	Status        string
	ErrorMessage  string
}

var csvHeader = []string{
	"Site URL", "Title", "Library Exists", "Item Count", "Size (MB)",
	"Timestamp", "Status", "Error",
}

// CSVReport appends per-site status rows to a timestamped CSV file.
type CSVReport struct {
	file   *os.File
	writer *csv.Writer
	path   string
}

// NewCSVReport creates the report file under dir and writes the header.
func NewCSVReport(dir string) (*CSVReport, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, "retention-status-"+time.Now().Format("20060102-150405")+".csv")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV report: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return &CSVReport{file: file, writer: writer, path: path}, nil
}

// Path returns the report file location.
func (r *CSVReport) Path() string { return r.path }

// WriteRow appends one site's status.
func (r *CSVReport) WriteRow(row StatusRow) error {
	record := []string{
		row.SiteURL,
		row.Title,
		strconv.FormatBool(row.LibraryExists),
		strconv.Itoa(row.ItemCount),
		fmt.Sprintf("%.2f", row.SizeMB),
		row.Timestamp.Format("2006-01-02 15:04:05"),
		row.Status,
		row.ErrorMessage,
	}
	if err := r.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	r.writer.Flush()
	return r.writer.Error()
}

// Close flushes and closes the report file.
func (r *CSVReport) Close() error {
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// WriteRunLog writes the plain-text log for a download run: per-site counts,
// byte totals and failure name lists. Returns the log file path.
func WriteRunLog(dir string, summaries []*export.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, "preservation-export-"+time.Now().Format("20060102-150405")+".log")
	var b strings.Builder

	b.WriteString("Preservation store export " + time.Now().Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")

	for _, s := range summaries {
		fmt.Fprintf(&b, "\nSite: %s (%s)\n", s.SiteTitle, s.SiteURL)
		if !s.LibraryExists {
			b.WriteString("  preservation store: not found\n")
			continue
		}
		fmt.Fprintf(&b, "  processed: %d  downloaded: %d  skipped (folders): %d  skipped (duplicates): %d  failed: %d\n",
			s.Processed, s.Succeeded, s.SkippedContainer, s.SkippedDuplicate, s.Errored)
		fmt.Fprintf(&b, "  downloaded bytes: %d (%.2f MB)  elapsed: %s\n",
			s.BytesDownloaded, s.SizeMB(), s.Elapsed.Round(time.Millisecond))
		if s.UploadSucceeded+s.UploadSkipped+s.UploadErrored > 0 {
			fmt.Fprintf(&b, "  uploaded: %d  upload skipped: %d  upload failed: %d  uploaded bytes: %d\n",
				s.UploadSucceeded, s.UploadSkipped, s.UploadErrored, s.BytesUploaded)
		}
		if len(s.FailedNames) > 0 {
			b.WriteString("  download failures:\n")
			for _, name := range s.FailedNames {
				b.WriteString("    - " + name + "\n")
			}
		}
		if len(s.UploadFailedNames) > 0 {
			b.WriteString("  upload failures:\n")
			for _, name := range s.UploadFailedNames {
				b.WriteString("    - " + name + "\n")
			}
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write run log: %w", err)
	}
	return path, nil
}
