package peripheral

import "errors"

// Domain errors for peripheral drivers.
var (
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("peripheral: unknown driver")

	// ErrApplyFailed is returned when hardware rejects an update.
	ErrApplyFailed = errors.New("peripheral: apply failed")
)
