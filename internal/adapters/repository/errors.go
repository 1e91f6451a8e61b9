package repository

import "github.com/cockroachdb/errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("player row not found")
	ErrInvalidSource = errors.New("invalid data source")
	ErrMalformedRow  = errors.New("malformed player row")
)
