package social

import (
	"errors"
	"fmt"
)

// Error kinds. Each typed error below matches exactly one of these through
// errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrSameEntity          = errors.New("same entity")
	ErrNoSuchRelationship  = errors.New("no such relationship")
	ErrPayloadTooLarge     = errors.New("payload too large")
)

// Entity names used in NotFoundError.
const (
	EntityUser = "User"
	EntityPost = "Post"
)

// NotFoundError reports a missing user or post.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id: %d was not found.", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidArgumentError carries a human readable validation message.
type InvalidArgumentError struct {
	Detail string
}

func (e *InvalidArgumentError) Error() string { return e.Detail }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// ConstraintViolationError reports a rejected write, typically a duplicate
// username or email.
type ConstraintViolationError struct {
	Detail string
}

func (e *ConstraintViolationError) Error() string { return e.Detail }

func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

// SameEntityError is returned when a user tries to befriend itself.
type SameEntityError struct{}

func (e *SameEntityError) Error() string { return "Can not add a user to it's own friend list." }

func (e *SameEntityError) Is(target error) bool { return target == ErrSameEntity }

// NoSuchRelationshipError is returned when removing an edge that does not exist.
type NoSuchRelationshipError struct {
	UserID   int64
	FriendID int64
}

func (e *NoSuchRelationshipError) Error() string {
	return fmt.Sprintf("There is no relationship between users with ID %d and %d.", e.UserID, e.FriendID)
}

func (e *NoSuchRelationshipError) Is(target error) bool { return target == ErrNoSuchRelationship }

// PayloadTooLargeError is returned when an upload exceeds Limit bytes.
type PayloadTooLargeError struct {
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("The field file exceeds its maximum permitted size of %d bytes.", e.Limit)
}

func (e *PayloadTooLargeError) Is(target error) bool { return target == ErrPayloadTooLarge }

func invalid(detail string) error {
	return &InvalidArgumentError{Detail: detail}
}

func userNotFound(id int64) error {
	return &NotFoundError{Entity: EntityUser, ID: id}
}

func postNotFound(id int64) error {
	return &NotFoundError{Entity: EntityPost, ID: id}
}
