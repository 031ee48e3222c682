package device

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourceControl = "control"
	StateHistorySourceConfig  = "config"
	StateHistorySourceButton  = "button"
	StateHistorySourceBoot    = "boot"
)

// StateHistoryEntry represents a single applied state change.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the node's client identifier.
	DeviceID string `json:"device_id"`

	// State is the snapshot that was applied to the peripheral.
	State Snapshot `json:"state"`

	// Source identifies what caused the change (control, config, button, boot).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// StateHistoryRepository stores and retrieves applied state snapshots.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange records a snapshot that was applied to the peripheral.
	RecordStateChange(ctx context.Context, deviceID string, state Snapshot, source string) error

	// GetHistory returns recent history for the device recorded after
	// since (zero for no lower bound), newest first.
	GetHistory(ctx context.Context, deviceID string, since time.Time, limit int) ([]StateHistoryEntry, error)
}
