package nodeconfig

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/device"
)

// Config is the persisted device configuration record.
type Config struct {
	Broker   string         `json:"broker"`
	ClientID string         `json:"client_id"`
	Variant  device.Variant `json:"variant"`

	// LED strip variant
	NeopixelPin   int `json:"neopixel_pin"`
	NeopixelCount int `json:"neopixel_count"`

	// Relay variant
	RelayPin  int `json:"relay_pin"`
	LEDPin    int `json:"led_pin"`
	ButtonPin int `json:"button_pin"`

	// DefaultOn is the power state applied at boot.
	DefaultOn bool `json:"default_on"`

	// Boot colour: hue in degrees, saturation and brightness in percent.
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}

// Defaults returns the compiled-in configuration. ClientID is left empty and
// derived from the hardware identity on first load.
func Defaults() Config {
	return Config{
		Broker:        "localhost",
		Variant:       device.VariantLED,
		NeopixelPin:   5,
		NeopixelCount: 19,
		RelayPin:      12,
		LEDPin:        13,
		ButtonPin:     0,
		DefaultOn:     true,
		Hue:           0,
		Saturation:    0,
		Brightness:    2,
	}
}

// StateDefaults returns the boot values for a device.State.
func (c Config) StateDefaults() device.Defaults {
	return device.Defaults{
		Power:      c.DefaultOn,
		Hue:        c.Hue,
		Saturation: c.Saturation,
		Brightness: c.Brightness,
	}
}

// RequiredRemoteKeys lists the keys a remote replacement must carry for the
// given variant.
func RequiredRemoteKeys(v device.Variant) []string {
	if v == device.VariantRelay {
		return []string{"power", "relay_pin", "led_pin", "button_pin"}
	}
	return []string{"hue", "saturation", "brightness", "power", "neopixel_pin", "neopixel_count"}
}

// Validate checks the record for values no peripheral could use.
func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Broker) == "" {
		errs = append(errs, "broker is required")
	}
	variant, err := device.ParseVariant(string(c.Variant))
	if err != nil {
		errs = append(errs, fmt.Sprintf("variant %q must be led or relay", c.Variant))
	}

	switch variant {
	case device.VariantLED:
		if c.NeopixelPin < 0 {
			errs = append(errs, "neopixel_pin must not be negative")
		}
		if c.NeopixelCount <= 0 {
			errs = append(errs, "neopixel_count must be positive")
		}
	case device.VariantRelay:
		if c.RelayPin < 0 || c.LEDPin < 0 || c.ButtonPin < 0 {
			errs = append(errs, "relay_pin, led_pin and button_pin must not be negative")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(errs, "; "))
	}
	return nil
}
