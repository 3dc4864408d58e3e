package store

import "errors"

var (
	ErrInvalidState  = errors.New("invalid entry state")
	ErrWriteRejected = errors.New("write rejected")
	ErrValidation    = errors.New("validation failed")
)
