package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStoreClosed  = errors.New("store closed")
	ErrInvalidEvent = errors.New("invalid attribution event")
	ErrUnknownStore = errors.New("unknown store backend")
)
