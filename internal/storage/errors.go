package storage

import (
	"errors"
	"fmt"
)

// ErrCorrupt matches any *CorruptStorageError via errors.Is.
var ErrCorrupt = errors.New("corrupt event storage")

// CorruptStorageError reports a data file that exists but cannot be decoded.
// Loading fails as a whole; no bucket is recovered from a corrupt file.
type CorruptStorageError struct {
	Path string
	Err  error
}

func (e *CorruptStorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("corrupt event storage: %v", e.Err)
	}
	return fmt.Sprintf("corrupt event storage %s: %v", e.Path, e.Err)
}

func (e *CorruptStorageError) Unwrap() error {
	return e.Err
}

func (e *CorruptStorageError) Is(target error) bool {
	return target == ErrCorrupt
}
