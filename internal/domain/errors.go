package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by repositories when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)
