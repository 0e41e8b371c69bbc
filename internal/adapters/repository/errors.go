package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidLimit = errors.New("invalid roster limit")
	ErrInvalidID    = errors.New("invalid entity id")
)
