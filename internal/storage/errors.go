package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an upload no longer exists.
	ErrNotFound = errors.New("upload not found")

	// ErrOutsideStore is returned for a path that does not name an upload of
	// this store.
	ErrOutsideStore = errors.New("path is outside the upload directory")

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("File size exceeds 20MB limit")
)

// StorageError wraps a filesystem failure with the operation and path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
