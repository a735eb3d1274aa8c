package model

import "errors"

var (
	// ErrUnknownBlockID is returned when an operation references a block
	// that does not exist in the scene.
	ErrUnknownBlockID = errors.New("unknown block id")

	// ErrInvalidConnection is returned when a connection would violate
	// socket capacity or the tree shape.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrMalformedPlanNode is reported for plan nodes whose tag is not
	// Query, Disjunct or Conjunct.
	ErrMalformedPlanNode = errors.New("malformed plan node")

	// ErrInvalidPayload is returned when a block's payload does not match
	// its kind.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotQuery is returned when a status update targets a block that is
	// not a query.
	ErrNotQuery = errors.New("block is not a query")
)
