// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package sharepoint

import "time"

// PreservationLibraryTitle is the hidden library SharePoint provisions once a
// retention or hold policy applies to a site.
const PreservationLibraryTitle = "Preservation Hold Library"

// SiteInfo is one tenant site collection as returned by the admin enumeration API.
type SiteInfo struct {
	URL   string `json:"Url"`
	Title string `json:"Title"`
}

// Item is one file-like entry in a site's preservation store.
// Fetched read-only; this tool never mutates items remotely.
type Item struct {
	LeafName          string
	ServerRelativeURL string
	SizeBytes         int64
	Created           time.Time
	Modified          time.Time
	AuthorEmail       string
	EditorEmail       string
	IsFolder          bool
}

// TrimJobMode selects how a version-deletion batch job is parameterized.
type TrimJobMode int

const (
	// TrimByAge deletes versions older than a cutoff in days.
	TrimByAge TrimJobMode = iota
	// TrimByCount keeps only the newest N major versions.
	TrimByCount
)

func (m TrimJobMode) String() string {
	switch m {
	case TrimByAge:
		return "age"
	case TrimByCount:
		return "count"
	default:
		return "unknown"
	}
}

// listItemWire mirrors the list-item JSON shape of the content-store API.
type listItemWire struct {
	FileLeafRef           string `json:"FileLeafRef"`
	FileRef               string `json:"FileRef"`
	SMTotalFileStreamSize int64  `json:"SMTotalFileStreamSize"`
	Created               string `json:"Created"`
	Modified              string `json:"Modified"`
	FSObjType             int    `json:"FSObjType"`
	Author                struct {
		Email string `json:"EMail"`
	} `json:"Author"`
	Editor struct {
		Email string `json:"EMail"`
	} `json:"Editor"`
}
