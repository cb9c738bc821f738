// Package tuning provides the client for the calibration tuning service.
package tuning

import "errors"

var (
	// ErrServiceUnavailable indicates the tuning service is unreachable
	ErrServiceUnavailable = errors.New("tuning service unavailable")

	// ErrCircuitOpen indicates the client is refusing calls after repeated failures
	ErrCircuitOpen = errors.New("tuning circuit breaker open")

	// ErrInvalidParams indicates the fetched params cannot build a calibration
	ErrInvalidParams = errors.New("invalid calibration params")
)
