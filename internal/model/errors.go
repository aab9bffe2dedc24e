package model

import "errors"

var (
	// ErrNotFound is returned when a registry entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySubscribed is returned when a user subscribes twice to the
	// same target.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrNotSubscribed is returned when an unsubscribe removes nothing.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrNotInitialized is returned when a required tracking table has not
	// been provisioned yet.
	ErrNotInitialized = errors.New("change tracking is not initialized")

	// ErrInvalidInput wraps validation failures so transport layers can map
	// them to client errors.
	ErrInvalidInput = errors.New("invalid input")
)
