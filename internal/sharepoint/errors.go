// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package sharepoint

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the admin or content-store endpoint rejected the
// connection or login. It is fatal for the enclosing menu action.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotFoundError indicates a site has no preservation store (or another
// remote resource is absent). Non-fatal: callers record it as a status value.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
