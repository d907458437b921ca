package sharedmedia

import "errors"

var (
	// ErrValidation marks malformed, oversized or wrongly typed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a media item or tournament that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied marks a caller that may not see or change the item.
	ErrAccessDenied = errors.New("access denied")
)
