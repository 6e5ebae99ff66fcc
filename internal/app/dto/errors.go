package dto

import "errors"

// Command and pass errors
var (
	ErrMissingNodeID   = errors.New("node ID is required")
	ErrMissingNodeKind = errors.New("node kind is required")
	ErrPassCancelled   = errors.New("evaluation pass cancelled")
	ErrPassInFlight    = errors.New("an evaluation pass is already running")
)
