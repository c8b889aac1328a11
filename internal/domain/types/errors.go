package types

import "errors"

// ErrNotFound marks a missing ranking or subject. Read paths wrap it so the
// transport layer can map it without importing the service.
var ErrNotFound = errors.New("not found")
