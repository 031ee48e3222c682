package device

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/color"
)

// Input ranges accepted by the setters.
const (
	// MaxHueDegrees is the upper bound for hue input in degrees.
	MaxHueDegrees = 360.0

	// MaxPercent is the upper bound for saturation and brightness input.
	MaxPercent = 100.0
)

// Variant identifies which kind of peripheral a node drives.
type Variant string

const (
	// VariantLED drives an addressable LED strip.
	VariantLED Variant = "led"

	// VariantRelay drives a relay-switched appliance with a status LED and button.
	VariantRelay Variant = "relay"
)

// ParseVariant converts a configuration string to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantLED, VariantRelay:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
	}
}

// Defaults seeds a State at boot. Colour values use the external units:
// hue in degrees, saturation and brightness in percent.
type Defaults struct {
	Power      bool
	Hue        float64
	Saturation float64
	Brightness float64
}

// State is the mutable device record.
//
// It is not safe for concurrent use. The controller serialises all access
// through its event loop.
type State struct {
	power         bool
	hue           float64
	saturation    float64
	value         float64
	relayPosition bool
}

// NewState creates a State from boot defaults, clamping each value.
func NewState(d Defaults) *State {
	s := &State{power: d.Power}
	s.SetHue(d.Hue)
	s.SetSaturation(d.Saturation)
	s.SetBrightness(d.Brightness)
	return s
}

// SetHue sets the hue from degrees, clamped to [0, 360].
func (s *State) SetHue(degrees float64) bool {
	return setComponent(&s.hue, degrees/MaxHueDegrees)
}

// SetSaturation sets saturation from a percentage, clamped to [0, 100].
func (s *State) SetSaturation(percent float64) bool {
	return setComponent(&s.saturation, percent/MaxPercent)
}

// SetBrightness sets the HSV value from a percentage, clamped to [0, 100].
func (s *State) SetBrightness(percent float64) bool {
	return setComponent(&s.value, percent/MaxPercent)
}

// SetPower sets whether output is energised. The stored colour is kept so
// that powering back on restores it.
func (s *State) SetPower(on bool) bool {
	if s.power == on {
		return false
	}
	s.power = on
	return true
}

// SetRGB stores an 8-bit colour by converting it to the canonical HSV form.
func (s *State) SetRGB(c color.RGB) bool {
	h, sat, v := color.RGBToHSV(c)
	changed := setComponent(&s.hue, h)
	changed = setComponent(&s.saturation, sat) || changed
	changed = setComponent(&s.value, v) || changed
	return changed
}

// Toggle inverts power and returns the new value.
func (s *State) Toggle() bool {
	s.power = !s.power
	return s.power
}

// SetRelayPosition records the relay pin level reported by the driver.
func (s *State) SetRelayPosition(closed bool) bool {
	if s.relayPosition == closed {
		return false
	}
	s.relayPosition = closed
	return true
}

// Snapshot returns an immutable copy of the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Power:         s.power,
		Hue:           s.hue,
		Saturation:    s.saturation,
		Value:         s.value,
		RelayPosition: s.relayPosition,
	}
}

func setComponent(dst *float64, v float64) bool {
	v = color.Clamp01(v)
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

// Snapshot is a point-in-time copy of State handed to drivers and publishers.
// Colour components are normalised to [0, 1].
type Snapshot struct {
	Power         bool    `json:"power"`
	Hue           float64 `json:"hue"`
	Saturation    float64 `json:"saturation"`
	Value         float64 `json:"value"`
	RelayPosition bool    `json:"relay_position"`
}

// HueDegrees returns the hue in degrees.
func (s Snapshot) HueDegrees() float64 { return s.Hue * MaxHueDegrees }

// SaturationPercent returns saturation as a percentage.
func (s Snapshot) SaturationPercent() float64 { return s.Saturation * MaxPercent }

// BrightnessPercent returns the HSV value as a percentage.
func (s Snapshot) BrightnessPercent() float64 { return s.Value * MaxPercent }

// Color returns the stored colour as 8-bit RGB, ignoring power.
func (s Snapshot) Color() color.RGB {
	return color.FromHSV(s.Hue, s.Saturation, s.Value)
}

// Output returns what the strip should display: the stored colour when
// powered, black otherwise.
func (s Snapshot) Output() color.RGB {
	if !s.Power {
		return color.Black
	}
	return s.Color()
}

// PowerPayload returns the "on"/"off" form used on the state topic.
func (s Snapshot) PowerPayload() string {
	return OnOff(s.Power)
}

// OnOff formats a boolean the way the node reports power.
func OnOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
