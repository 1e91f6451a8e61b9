package service

import "github.com/cockroachdb/errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidQuery   = errors.New("invalid query")
	ErrTooManyPlayers = errors.New("too many players")
	ErrNotStarted     = errors.New("service not started")
)
