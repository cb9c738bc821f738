package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrInvalidID        = errors.New("invalid ID format")
	ErrInsufficientData = errors.New("insufficient market data for pricing")
	ErrInvalidOdds      = errors.New("odds must be greater than 1.0")
	ErrDegenerateProb   = errors.New("probability outside the open unit interval")
)
