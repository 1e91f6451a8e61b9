package catalog

import "github.com/cockroachdb/errors"

// Sentinel kinds for catalog errors. All of them are configuration errors and
// must stop the process at startup.
var (
	ErrDuplicateMetric = errors.New("duplicate metric")
	ErrUnknownMetric   = errors.New("unknown metric")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrUnknownProfile  = errors.New("unknown profile")
	ErrSealed          = errors.New("catalog is sealed")
)
