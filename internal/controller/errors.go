package controller

import "errors"

// Domain-specific errors for command handling.
var (
	// ErrUnknownCommand is returned when a control payload has an unrecognised tag.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformedCommand is returned when a recognised tag carries an unusable value.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrMissingDependency is returned when a required collaborator is not supplied.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrMaintenanceRequested is returned by Controller.Run after a
	// maintenance command has shut the session down.
	ErrMaintenanceRequested = errors.New("maintenance mode requested")
)
