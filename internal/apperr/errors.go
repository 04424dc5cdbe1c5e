// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrMalformed     = errors.New("malformed document")
	ErrMissingFields = errors.New("missing required fields")
)
