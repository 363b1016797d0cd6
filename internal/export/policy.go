// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package export

import "fmt"

// DuplicatePolicy decides what happens when a destination name is taken,
// locally and on the upload target alike.
type DuplicatePolicy int

const (
	// Skip leaves the existing file and does not transfer the item.
	Skip DuplicatePolicy = iota
	// Overwrite removes the existing file before writing.
	Overwrite
	// Rename appends _1, _2, ... before the extension until the name is free.
	Rename
)

func (p DuplicatePolicy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case Rename:
		return "rename"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy maps a config string to its policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "skip":
		return Skip, nil
	case "overwrite":
		return Overwrite, nil
	case "rename":
		return Rename, nil
	default:
		return Skip, fmt.Errorf("invalid duplicate policy %q (use: skip, overwrite, rename)", s)
	}
}
