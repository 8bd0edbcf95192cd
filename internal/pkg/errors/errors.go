package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnknownSkill marks taxonomy lookups on ids absent from the snapshot.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrInvalidConfiguration marks rejected request or startup configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrServiceUnavailable marks requests arriving before the first snapshot load.
	ErrServiceUnavailable = errors.New("service unavailable")
)
