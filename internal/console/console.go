// Copyright (c) 2024 Netskope, Inc. All rights reserved.

// Package console wraps operator interaction. Prompts read from an injected
// reader and all output goes to an injected writer, so menu and selection
// logic can be driven from tests without a real terminal.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console reads operator input line by line and prints status output.
type Console struct {
	in  *bufio.Scanner
	out io.Writer

	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// New creates a Console reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:      bufio.NewScanner(in),
		out:     out,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
}

// ReadLine prints the prompt and returns the next input line, trimmed.
// Returns io.EOF when input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// Confirm prompts for a yes/no answer. Only "y" and "yes" (case-insensitive)
// count as confirmation; everything else is a no.
func (c *Console) Confirm(prompt string) (bool, error) {
	line, err := c.ReadLine(prompt + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Printf writes plain output.
func (c *Console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Successf writes a green status line.
func (c *Console) Successf(format string, args ...interface{}) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Warnf writes a yellow status line.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.warn.Fprintf(c.out, format+"\n", args...)
}

// Errorf writes a red status line.
func (c *Console) Errorf(format string, args ...interface{}) {
	c.fail.Fprintf(c.out, format+"\n", args...)
}
