package peripheral

import (
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/color"
	"github.com/nerrad567/gray-logic-node/internal/device"
)

// Driver applies a snapshot to physical output. It never retains or mutates
// the snapshot.
type Driver interface {
	// Apply drives the hardware to match snap.
	Apply(snap device.Snapshot) error

	// Variant reports which kind of node the driver serves.
	Variant() device.Variant
}

// PositionReporter is implemented by drivers that can read back the real
// output level after Apply.
type PositionReporter interface {
	Position() (bool, error)
}

// LedStrip is an addressable LED strip.
type LedStrip interface {
	// Len returns the number of pixels.
	Len() int

	// Fill sets every pixel in the frame buffer to c.
	Fill(c color.RGB)

	// Write pushes the frame buffer to the strip.
	Write() error
}

// RelaySwitch is a relay-switched appliance with a status indicator.
type RelaySwitch interface {
	// SetRelay closes (true) or opens (false) the relay.
	SetRelay(closed bool) error

	// Relay reads the relay pin level back.
	Relay() (bool, error)

	// SetIndicator lights the status LED.
	SetIndicator(on bool) error
}

// StripDriver drives an LedStrip from snapshots.
type StripDriver struct {
	strip LedStrip
}

// NewStripDriver wraps strip.
func NewStripDriver(strip LedStrip) *StripDriver {
	return &StripDriver{strip: strip}
}

// Apply fills the strip with the snapshot output (black when powered off).
func (d *StripDriver) Apply(snap device.Snapshot) error {
	d.strip.Fill(snap.Output())
	if err := d.strip.Write(); err != nil {
		return fmt.Errorf("%w: writing strip: %w", ErrApplyFailed, err)
	}
	return nil
}

// Variant implements Driver.
func (d *StripDriver) Variant() device.Variant { return device.VariantLED }

// RelayDriver drives a RelaySwitch from snapshots.
type RelayDriver struct {
	sw RelaySwitch
}

// NewRelayDriver wraps sw.
func NewRelayDriver(sw RelaySwitch) *RelayDriver {
	return &RelayDriver{sw: sw}
}

// Apply sets the relay and indicator to the snapshot's power.
func (d *RelayDriver) Apply(snap device.Snapshot) error {
	if err := d.sw.SetRelay(snap.Power); err != nil {
		return fmt.Errorf("%w: setting relay: %w", ErrApplyFailed, err)
	}
	if err := d.sw.SetIndicator(snap.Power); err != nil {
		return fmt.Errorf("%w: setting indicator: %w", ErrApplyFailed, err)
	}
	return nil
}

// Position implements PositionReporter.
func (d *RelayDriver) Position() (bool, error) {
	return d.sw.Relay()
}

// Variant implements Driver.
func (d *RelayDriver) Variant() device.Variant { return device.VariantRelay }
