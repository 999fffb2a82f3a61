package domain

import "errors"

// Edit rejections. The graph is left unchanged when any of these is returned.
var (
	// ErrBlankName is returned when a state name is empty or only whitespace.
	ErrBlankName = errors.New("state name is blank")

	// ErrDuplicateName is returned when a state name is already in use.
	ErrDuplicateName = errors.New("state name already in use")

	// ErrStateNotFound is returned when a state name does not match any node.
	ErrStateNotFound = errors.New("state not found")

	// ErrEdgeNotFound is returned when an edge ID does not match any edge.
	ErrEdgeNotFound = errors.New("transition not found")

	// ErrLastState is returned when deleting the only remaining state.
	ErrLastState = errors.New("cannot delete the last remaining state")

	// ErrUnknownOp is returned for edit commands with an unrecognized op.
	ErrUnknownOp = errors.New("unknown edit operation")

	// ErrInvalidCommand is returned for edit commands missing a required field.
	ErrInvalidCommand = errors.New("invalid edit command")
)

// ErrCorruptGraph signals a broken graph invariant.
// It is only reachable through a programming error, never through edit operations.
var ErrCorruptGraph = errors.New("graph invariant violated")

// ErrDefinitionNotFound is returned when no definition is stored for an agent.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrSessionNotFound is returned when a session ID does not match an open session.
var ErrSessionNotFound = errors.New("session not found")
