// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLeafName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"guid and timestamp suffix stripped",
			"Report_3FA85F642E4B4562BFAC112233445566202401011030000000.docx",
			"Report.docx",
		},
		{
			"lowercase guid suffix stripped",
			"budget_3fa85f642e4b4562bfac112233445566202312150900000000.xlsx",
			"budget.xlsx",
		},
		{
			"underscored stem kept intact",
			"year_end_report_3FA85F642E4B4562BFAC112233445566202401011030000000.pdf",
			"year_end_report.pdf",
		},
		{
			"no suffix unchanged",
			"Report.docx",
			"Report.docx",
		},
		{
			"short hex run is not a capture suffix",
			"notes_3FA85F.txt",
			"notes_3FA85F.txt",
		},
		{
			"no extension",
			"README_3FA85F642E4B4562BFAC112233445566202401011030000000",
			"README",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanLeafName(tt.input))
		})
	}
}

func TestNextFreeName(t *testing.T) {
	taken := func(existing ...string) func(string) (bool, error) {
		set := make(map[string]bool, len(existing))
		for _, name := range existing {
			set[name] = true
		}
		return func(candidate string) (bool, error) {
			return set[candidate], nil
		}
	}

	t.Run("free name returned as-is", func(t *testing.T) {
		name, err := nextFreeName("report.docx", taken())
		require.NoError(t, err)
		assert.Equal(t, "report.docx", name)
	})

	t.Run("first collision appends _1", func(t *testing.T) {
		name, err := nextFreeName("report.docx", taken("report.docx"))
		require.NoError(t, err)
		assert.Equal(t, "report_1.docx", name)
	})

	t.Run("counter advances past taken names", func(t *testing.T) {
		name, err := nextFreeName("report.docx", taken("report.docx", "report_1.docx", "report_2.docx"))
		require.NoError(t, err)
		assert.Equal(t, "report_3.docx", name)
	})

	t.Run("extensionless names", func(t *testing.T) {
		name, err := nextFreeName("README", taken("README"))
		require.NoError(t, err)
		assert.Equal(t, "README_1", name)
	})
}

func TestParseDuplicatePolicy(t *testing.T) {
	for _, valid := range []string{"skip", "overwrite", "rename"} {
		policy, err := ParseDuplicatePolicy(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, policy.String())
	}

	_, err := ParseDuplicatePolicy("replace")
	assert.Error(t, err)
}
