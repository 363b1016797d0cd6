// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	out := &bytes.Buffer{}
	c := New(strings.NewReader("  first \nsecond\n"), out)

	line, err := c.ReadLine("prompt> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line, "input must be trimmed")
	assert.Contains(t, out.String(), "prompt> ")

	line, err = c.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	_, err = c.ReadLine("")
	assert.ErrorIs(t, err, io.EOF)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"YES", true},
		{"n", false},
		{"no", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			c := New(strings.NewReader(tt.input+"\n"), &bytes.Buffer{})
			ok, err := c.Confirm("Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestConfirmEOF(t *testing.T) {
	c := New(strings.NewReader(""), &bytes.Buffer{})
	_, err := c.Confirm("Proceed?")
	assert.ErrorIs(t, err, io.EOF)
}
