package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrIndexBuild        = errors.New("index build failed")
	ErrSessionNotFound   = errors.New("session not found")
	ErrGeneration        = errors.New("generation failed")
	ErrExtraction        = errors.New("extraction failed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrTemporary         = errors.New("temporary failure")
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
