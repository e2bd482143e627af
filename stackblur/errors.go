package stackblur

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRadius     = errors.New("invalid radius")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrPoolUnavailable   = errors.New("worker pool unavailable")
	ErrJobFailed         = errors.New("blur job failed")
)

type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}
