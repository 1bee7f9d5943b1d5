package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrIndexOutOfRange = errors.New("column index out of range")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidPayload  = errors.New("invalid payload")
)

// NotFoundError is returned when a required row is missing.
type NotFoundError struct {
	Query   string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IndexError is returned when a column index exceeds the row width.
type IndexError struct {
	Column int
	Width  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("column index %d out of range for row of width %d", e.Column, e.Width)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// FailureKind classifies why a statement failed.
type FailureKind string

const (
	FailureNone                FailureKind = "none"
	FailureUniqueViolation     FailureKind = "unique_violation"
	FailureForeignKeyViolation FailureKind = "foreign_key_violation"
	FailureNotNullViolation    FailureKind = "not_null_violation"
	FailureConnection          FailureKind = "connection"
	FailureUnknown             FailureKind = "unknown"
)
