// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package export

import "time"

// Summary accumulates the counters for one site export. For the download leg
// the counters always satisfy
//
//	Processed == Succeeded + SkippedContainer + SkippedDuplicate + Errored
//
// The upload leg is counted separately; only downloaded items reach it.
type Summary struct {
	SiteURL       string
	SiteTitle     string
	LibraryExists bool

	Processed        int
	Succeeded        int
	SkippedContainer int
	SkippedDuplicate int
	Errored          int
	BytesDownloaded  int64
	FailedNames      []string

	UploadSucceeded   int
	UploadSkipped     int
	UploadErrored     int
	BytesUploaded     int64
	UploadFailedNames []string

	Started time.Time
	Elapsed time.Duration
}

// SizeMB returns the downloaded volume in megabytes for reporting.
func (s *Summary) SizeMB() float64 {
	return float64(s.BytesDownloaded) / (1024 * 1024)
}
