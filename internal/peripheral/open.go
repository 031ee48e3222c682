package peripheral

import (
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
)

// DriverSimulated selects the in-memory hardware.
const DriverSimulated = "simulated"

// Hardware bundles what Open selects for a node.
type Hardware struct {
	Driver Driver

	// Button is nil for variants without one.
	Button *ChannelButton
}

// Open builds the driver for cfg's variant using the named hardware backend.
func Open(name string, cfg nodeconfig.Config, logger Logger) (Hardware, error) {
	if name != DriverSimulated {
		return Hardware{}, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}

	switch cfg.Variant {
	case device.VariantLED:
		strip := NewSimulatedStrip(cfg.NeopixelPin, cfg.NeopixelCount, logger)
		return Hardware{Driver: NewStripDriver(strip)}, nil
	case device.VariantRelay:
		relay := NewSimulatedRelay(cfg.RelayPin, cfg.LEDPin, logger)
		return Hardware{Driver: NewRelayDriver(relay), Button: NewChannelButton()}, nil
	default:
		return Hardware{}, fmt.Errorf("%w: %q", device.ErrInvalidVariant, cfg.Variant)
	}
}
