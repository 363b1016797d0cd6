// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// The preservation store disambiguates captured copies by appending a 32-hex
// GUID and a timestamp to the original stem, e.g.
// "Report_3fa85f642e4b4562bfac112233445566202401011030000000.docx".
var holdSuffixPattern = regexp.MustCompile(`^(.+)_[0-9A-Fa-f]{32}`)

// CleanLeafName strips the machine-appended GUID+timestamp suffix from a
// preservation store file name, restoring the original extension. Names
// without the suffix pattern are returned unchanged.
func CleanLeafName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	m := holdSuffixPattern.FindStringSubmatch(stem)
	if m == nil {
		return name
	}
	return m[1] + ext
}

// nextFreeName applies the Rename policy: name.ext, then name_1.ext,
// name_2.ext, ... until taken reports the candidate as free.
func nextFreeName(name string, taken func(string) (bool, error)) (string, error) {
	exists, err := taken(name)
	if err != nil {
		return "", err
	}
	if !exists {
		return name, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}
