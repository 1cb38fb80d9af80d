package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrValidation   = errors.New("validation failed")
	ErrStorage      = errors.New("storage failure")
	ErrPersistence  = errors.New("persistence failure")
	ErrTemporary    = errors.New("temporary failure")
)

// Batch-level and per-file validation reasons. They all carry ErrValidation
// so the HTTP adapter maps them to 400 without enumerating each one.
var (
	ErrTooManyFiles = fmt.Errorf("%w: too many files", ErrValidation)
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrValidation)
	ErrInvalidType  = fmt.Errorf("%w: invalid file type", ErrValidation)
	ErrEmptyBatch   = fmt.Errorf("%w: no files uploaded", ErrValidation)
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
