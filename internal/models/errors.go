package models

import "errors"

// Sentinel errors shared by repositories, services and handlers.
// Wrap them with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrUnavailable  = errors.New("upstream unavailable")
)
