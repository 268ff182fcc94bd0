package service

import "errors"

var (
	// ErrInvalidArgument marks requests that fail validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden marks requests for records the caller may not access.
	ErrForbidden = errors.New("forbidden")
)
