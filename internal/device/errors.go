package device

import "errors"

// Domain errors for the device package.
var (
	// ErrInvalidVariant is returned when a variant name is not recognised.
	ErrInvalidVariant = errors.New("device: invalid variant")

	// ErrMissingDeviceID is returned when a history operation has no device id.
	ErrMissingDeviceID = errors.New("device: device id is required")
)
