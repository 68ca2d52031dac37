package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrNoEdge indicates the two users are not friends.
	ErrNoEdge = errors.New("friendship not found")
)

// MissingRecordError reports which row was missing when an operation touches
// more than one record. It matches ErrNotFound.
type MissingRecordError struct {
	Table string
	ID    int64
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Table, e.ID, ErrNotFound)
}

func (e *MissingRecordError) Unwrap() error { return ErrNotFound }

// ConflictError carries the storage message of a unique-key violation. It
// matches ErrConflict.
type ConflictError struct {
	Constraint string
	Message    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConflict, e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
