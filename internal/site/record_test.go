// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package site

import (
	"testing"

	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "projects", "projects"},
		{"mixed case", "PrOjEcTs", "projects"},
		{"punctuation stripped", "Proj-Ects", "projects"},
		{"spaces stripped", "HR Archive 2023", "hrarchive2023"},
		{"url characters stripped", "https://contoso.sharepoint.com/sites/hr", "httpscontososharepointcomsiteshr"},
		{"only punctuation", "---", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNewRecordDerivedFields(t *testing.T) {
	rec := NewRecord(sharepoint.SiteInfo{
		URL:   "https://contoso.sharepoint.com/sites/HR-Archive",
		Title: "HR Archive",
	})

	assert.Equal(t, "hrarchive", rec.NormalizedTitle)
	assert.Equal(t, "siteshrarchive", rec.RelativePath)
	assert.Equal(t, []string{"sites", "hrarchive"}, rec.Segments)
	assert.Equal(t, "hrarchive", rec.LastSegment())
}

func TestRecordMatches(t *testing.T) {
	rec := NewRecord(sharepoint.SiteInfo{
		URL:   "https://contoso.sharepoint.com/sites/projects",
		Title: "Projects",
	})

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"exact title", "projects", true},
		{"title substring", "proj", true},
		{"url substring", "contoso", true},
		{"segment equality", "sites", true},
		{"no match", "archive", false},
		{"empty token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rec.Matches(Normalize(tt.token)))
		})
	}
}

func TestNewRecordsPreservesOrder(t *testing.T) {
	infos := []sharepoint.SiteInfo{
		{URL: "https://contoso.sharepoint.com/sites/a", Title: "A"},
		{URL: "https://contoso.sharepoint.com/sites/b", Title: "B"},
	}

	records := NewRecords(infos)
	assert.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Title)
	assert.Equal(t, "B", records[1].Title)
}
