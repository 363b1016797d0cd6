// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package site holds the in-memory site-collection records and the
// interactive selector that resolves operator input against them.
package site

import (
	"net/url"
	"strings"

	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
)

// Record is one tenant site collection with its matching keys precomputed.
// Records are immutable after enumeration and never persisted.
type Record struct {
	URL   string
	Title string

	// Derived at enumeration time: lower-cased with all non-alphanumeric
	// characters stripped, so operator tokens match regardless of case or
	// punctuation.
	NormalizedTitle string
	NormalizedURL   string
	RelativePath    string

	// Normalized URL path segments, for exact-equality token matching.
	Segments []string
}

// NewRecord builds a Record from one admin-service site entry.
func NewRecord(info sharepoint.SiteInfo) Record {
	rec := Record{
		URL:             info.URL,
		Title:           info.Title,
		NormalizedTitle: Normalize(info.Title),
		NormalizedURL:   Normalize(info.URL),
	}

	if u, err := url.Parse(info.URL); err == nil {
		rec.RelativePath = Normalize(u.Path)
		for _, seg := range strings.Split(u.Path, "/") {
			if n := Normalize(seg); n != "" {
				rec.Segments = append(rec.Segments, n)
			}
		}
	}

	return rec
}

// NewRecords converts an enumerated site list, preserving order.
func NewRecords(infos []sharepoint.SiteInfo) []Record {
	records := make([]Record, 0, len(infos))
	for _, info := range infos {
		records = append(records, NewRecord(info))
	}
	return records
}

// LastSegment returns the final path segment of the site URL, normalized.
// Empty for root sites.
func (r Record) LastSegment() string {
	if len(r.Segments) == 0 {
		return ""
	}
	return r.Segments[len(r.Segments)-1]
}

// Normalize lower-cases s and strips every non-alphanumeric character.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether a normalized token selects this record: substring
// of the normalized title, URL or relative path, or exact equality with any
// path segment or the final URL segment.
func (r Record) Matches(normalizedToken string) bool {
	if normalizedToken == "" {
		return false
	}
	if strings.Contains(r.NormalizedTitle, normalizedToken) ||
		strings.Contains(r.NormalizedURL, normalizedToken) ||
		strings.Contains(r.RelativePath, normalizedToken) {
		return true
	}
	for _, seg := range r.Segments {
		if seg == normalizedToken {
			return true
		}
	}
	return r.LastSegment() == normalizedToken
}
