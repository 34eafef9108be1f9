package domain

import "errors"

var (
	ErrDuplicateID           = errors.New("duplicate annotation id")
	ErrNotFound              = errors.New("annotation not found")
	ErrImmutable             = errors.New("annotation is pending delete")
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingSessionContext = errors.New("no active document session")
)
