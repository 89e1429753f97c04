package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoSamples        = errors.New("no samples found: column may be empty or entirely NULL")
	ErrNoPrimaryKey     = errors.New("no single-column integer primary key")
	ErrUnsafeIdentifier = errors.New("unsafe identifier")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
