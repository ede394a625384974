package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("question and answer are both required")
	ErrCardNotFound  = errors.New("card no longer exists")
	ErrEmptyUsername = errors.New("nickname is required")
	ErrCorruptStore  = errors.New("flashcard store is corrupt")
)

// ValidationError lists the card fields that failed validation.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (missing: %s)", ErrValidation, strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrValidation, e.Err)
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
