package ranking

import (
	"errors"
	"fmt"
)

// ErrWindowOutOfRange marks a pagination window that does not fit the ranking.
var ErrWindowOutOfRange = errors.New("ranking window out of range")

// WindowError describes a rejected pagination window. It is the panic value of
// Paginate and the error returned by Page.
type WindowError struct {
	Offset int
	Limit  int
	Len    int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("%s: offset=%d limit=%d len=%d", ErrWindowOutOfRange, e.Offset, e.Limit, e.Len)
}

// Is reports ErrWindowOutOfRange as the error kind.
func (e *WindowError) Is(target error) bool { return target == ErrWindowOutOfRange }
