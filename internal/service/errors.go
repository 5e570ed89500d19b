package service

import "errors"

// Handlers map these to HTTP status codes; wrap them with %w and match with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)
