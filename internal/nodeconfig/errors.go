package nodeconfig

import "errors"

// Domain errors for node configuration.
var (
	// ErrNotFound is returned by Storage.Read when nothing has been persisted yet.
	ErrNotFound = errors.New("nodeconfig: not found")

	// ErrMalformed is returned when a configuration document cannot be decoded
	// or holds invalid values.
	ErrMalformed = errors.New("nodeconfig: malformed configuration")

	// ErrMissingKeys is returned when a remote document lacks required keys.
	ErrMissingKeys = errors.New("nodeconfig: missing required keys")

	// ErrSaveFailed is returned when the configuration cannot be persisted.
	ErrSaveFailed = errors.New("nodeconfig: save failed")

	// ErrNoHardwareID is returned when no stable hardware identity is available.
	ErrNoHardwareID = errors.New("nodeconfig: no hardware id available")
)
