// Package graph defines domain-specific errors
package graph

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Graph errors
	ErrCyclicGraph   = errors.New("cyclic dependency detected")
	ErrNodeNotFound  = errors.New("node not found")
	ErrNilNode       = errors.New("node cannot be nil")
	ErrDuplicateNode = errors.New("duplicate node ID")

	// Connection validation errors, returned by Connect and surfaced
	// verbatim to the UI so it can explain a failed drag-to-connect.
	ErrSelfConnection        = errors.New("cannot connect a node to itself")
	ErrInvalidPort           = errors.New("port does not belong to the referenced node")
	ErrInvalidPortType       = errors.New("connection must run from an output port to an input port")
	ErrTypeMismatch          = errors.New("port data types do not match")
	ErrWouldCreateCycle      = errors.New("connection would create a cycle")
	ErrInputAlreadyConnected = errors.New("input port already has a connection")

	// Parameter errors
	ErrUnknownParam      = errors.New("parameter not declared by node kind")
	ErrParamKindMismatch = errors.New("parameter value kind does not match schema")

	// Node construction errors
	ErrInvalidNodeKind = errors.New("invalid node kind")
	ErrInvalidNodeName = errors.New("invalid node name")
)
