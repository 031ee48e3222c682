package controller

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/color"
)

// Command tags recognised on the control topic.
const (
	tagHue        = "h"
	tagHueLong    = "hue"
	tagSat        = "s"
	tagSatLong    = "saturation"
	tagBright     = "b"
	tagBrightLong = "brightness"
	tagPower      = "power"
	tagRGB        = "rgb"
	tagToggle     = "toggle"
	tagQuery      = "state?"
	tagWebREPL    = "webrepl"
)

// Command is one decoded inbound instruction. The set is closed: only the
// types in this package implement it.
type Command interface {
	// Name identifies the command in logs and metrics.
	Name() string

	isCommand()
}

// SetHue sets the hue in degrees.
type SetHue struct{ Degrees float64 }

// SetSaturation sets saturation in percent.
type SetSaturation struct{ Percent float64 }

// SetBrightness sets brightness in percent.
type SetBrightness struct{ Percent float64 }

// SetPower switches output on or off.
type SetPower struct{ On bool }

// SetRGB sets the colour from 8-bit channels.
type SetRGB struct{ Color color.RGB }

// ToggleRelay inverts power. On relay nodes the new value is the inverse of
// the relay's read-back position.
type ToggleRelay struct{}

// QueryState republishes state without changing it.
type QueryState struct{}

// ReplaceConfig carries a remote configuration document.
type ReplaceConfig struct{ Document []byte }

// EnterMaintenanceMode hands the node over to the maintenance program.
type EnterMaintenanceMode struct{}

func (SetHue) Name() string               { return "set_hue" }
func (SetSaturation) Name() string        { return "set_saturation" }
func (SetBrightness) Name() string        { return "set_brightness" }
func (SetPower) Name() string             { return "set_power" }
func (SetRGB) Name() string               { return "set_rgb" }
func (ToggleRelay) Name() string          { return "toggle" }
func (QueryState) Name() string           { return "query_state" }
func (ReplaceConfig) Name() string        { return "replace_config" }
func (EnterMaintenanceMode) Name() string { return "maintenance" }

func (SetHue) isCommand()               {}
func (SetSaturation) isCommand()        {}
func (SetBrightness) isCommand()        {}
func (SetPower) isCommand()             {}
func (SetRGB) isCommand()               {}
func (ToggleRelay) isCommand()          {}
func (QueryState) isCommand()           {}
func (ReplaceConfig) isCommand()        {}
func (EnterMaintenanceMode) isCommand() {}

// ParseControl decodes a control topic payload.
//
// The payload is split on the first ':' into a tag and a value. Numeric
// values are not range checked here; the state setters clamp them.
func ParseControl(payload []byte) (Command, error) {
	text := strings.TrimSpace(string(payload))
	tag, value, hasValue := strings.Cut(text, ":")
	tag = strings.ToLower(strings.TrimSpace(tag))
	value = strings.TrimSpace(value)

	switch tag {
	case tagToggle:
		return ToggleRelay{}, nil
	case tagQuery:
		return QueryState{}, nil
	case tagWebREPL:
		return EnterMaintenanceMode{}, nil
	}

	if !hasValue {
		if isValueTag(tag) {
			return nil, fmt.Errorf("%w: %q has no value", ErrMalformedCommand, tag)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, tag)
	}

	switch tag {
	case tagHue, tagHueLong:
		v, err := parseNumber(tag, value)
		if err != nil {
			return nil, err
		}
		return SetHue{Degrees: v}, nil
	case tagSat, tagSatLong:
		v, err := parseNumber(tag, value)
		if err != nil {
			return nil, err
		}
		return SetSaturation{Percent: v}, nil
	case tagBright, tagBrightLong:
		v, err := parseNumber(tag, value)
		if err != nil {
			return nil, err
		}
		return SetBrightness{Percent: v}, nil
	case tagPower:
		on, err := parsePower(value)
		if err != nil {
			return nil, err
		}
		return SetPower{On: on}, nil
	case tagRGB:
		c, err := parseRGB(value)
		if err != nil {
			return nil, err
		}
		return SetRGB{Color: c}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, tag)
	}
}

func isValueTag(tag string) bool {
	switch tag {
	case tagHue, tagHueLong, tagSat, tagSatLong, tagBright, tagBrightLong, tagPower, tagRGB:
		return true
	}
	return false
}

func parseNumber(tag, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s value %q is not a number", ErrMalformedCommand, tag, value)
	}
	return v, nil
}

func parsePower(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: power value %q", ErrMalformedCommand, value)
	}
}

// parseRGB decodes "r:g:b". Channels outside 0-255 are clamped.
func parseRGB(value string) (color.RGB, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return color.RGB{}, fmt.Errorf("%w: rgb needs three channels, got %q", ErrMalformedCommand, value)
	}

	var ch [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return color.RGB{}, fmt.Errorf("%w: rgb channel %q is not an integer", ErrMalformedCommand, p)
		}
		ch[i] = uint8(min(max(n, 0), math.MaxUint8))
	}
	return color.RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}
