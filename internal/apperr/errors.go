// Package apperr holds service-level sentinel errors shared by the HTTP and
// MCP surfaces.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidUpload = errors.New("invalid upload")
)
