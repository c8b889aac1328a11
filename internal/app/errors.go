package service

import (
	"errors"

	"github.com/okian/standings/internal/domain/types"
)

// Sentinel kinds for service errors.
var (
	ErrNotFound   = types.ErrNotFound
	ErrNotStarted = errors.New("service not started")
)
