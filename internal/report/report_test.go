// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package report

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReportRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r, err := NewCSVReport(dir)
	require.NoError(t, err)

	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, r.WriteRow(StatusRow{
		SiteURL:       "https://contoso.sharepoint.com/sites/projects",
		Title:         "Projects",
		LibraryExists: true,
		ItemCount:     42,
		SizeMB:        1.5,
		Timestamp:     ts,
		Status:        "ok",
	}))
	require.NoError(t, r.WriteRow(StatusRow{
		SiteURL:      "https://contoso.sharepoint.com/sites/hr",
		Title:        "HR",
		Timestamp:    ts,
		Status:       "error",
		ErrorMessage: "listing failed",
	}))
	require.NoError(t, r.Close())

	file, err := os.Open(r.Path())
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"https://contoso.sharepoint.com/sites/projects", "Projects",
		"true", "42", "1.50", "2024-03-01 12:30:00", "ok", "",
	}, rows[1])
	assert.Equal(t, "listing failed", rows[2][7])
}

func TestCSVReportEscapesCommasInTitles(t *testing.T) {
	r, err := NewCSVReport(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, r.WriteRow(StatusRow{
		SiteURL:   "https://contoso.sharepoint.com/sites/legal",
		Title:     "Legal, Compliance & Audit",
		Timestamp: time.Now(),
		Status:    "ok",
	}))
	require.NoError(t, r.Close())

	file, err := os.Open(r.Path())
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Legal, Compliance & Audit", rows[1][1])
}

func TestWriteRunLog(t *testing.T) {
	dir := t.TempDir()

	summaries := []*export.Summary{
		{
			SiteURL:          "https://contoso.sharepoint.com/sites/projects",
			SiteTitle:        "Projects",
			LibraryExists:    true,
			Processed:        5,
			Succeeded:        3,
			SkippedContainer: 1,
			Errored:          1,
			BytesDownloaded:  1024,
			FailedNames:      []string{"broken.docx"},
			Elapsed:          2 * time.Second,
		},
		{
			SiteURL:   "https://contoso.sharepoint.com/sites/hr",
			SiteTitle: "HR",
		},
	}

	path, err := WriteRunLog(dir, summaries)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "https://contoso.sharepoint.com/sites/projects")
	assert.Contains(t, text, "broken.docx")
	assert.Contains(t, text, "https://contoso.sharepoint.com/sites/hr")
}
