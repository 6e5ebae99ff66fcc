// Package journal defines domain-specific errors
package journal

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Record validation errors
	ErrInvalidRecordID = errors.New("invalid record ID")
	ErrInvalidGraphID  = errors.New("invalid graph ID")
	ErrInvalidTrigger  = errors.New("invalid pass trigger")
	ErrRecordNotFound  = errors.New("record not found")

	// Filter validation errors
	ErrInvalidLimit = errors.New("limit cannot be negative")

	// Persistence errors
	ErrAppendFailed = errors.New("failed to append record")
	ErrLoadFailed   = errors.New("failed to load record")
)
