package color

import "math"

// channelMax is the largest value of an 8-bit colour channel.
const channelMax = 255

// RGB is an 8-bit per channel colour as written to an LED strip.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the zeroed output used when the node is powered off.
var Black = RGB{}

// HSVToRGB converts normalised hue, saturation and value to normalised
// red, green and blue components using the six-sector method.
//
// A hue of exactly 1.0 wraps to sector 0 (red).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		// Achromatic
		return v, v, v
	}

	scaled := h * 6
	sector := math.Floor(scaled)
	f := scaled - sector
	i := int(sector) % 6
	if i < 0 {
		i += 6
	}

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch i {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// ToRGB8 scales normalised components to 8-bit channels, rounding to the
// nearest integer and clamping to [0, 255].
func ToRGB8(r, g, b float64) RGB {
	return RGB{R: scaleChannel(r), G: scaleChannel(g), B: scaleChannel(b)}
}

// FromHSV is shorthand for ToRGB8(HSVToRGB(h, s, v)).
func FromHSV(h, s, v float64) RGB {
	return ToRGB8(HSVToRGB(h, s, v))
}

// RGBToHSV converts an 8-bit colour to normalised hue, saturation and value.
// Grey inputs report hue 0.
func RGBToHSV(c RGB) (h, s, v float64) {
	rf := float64(c.R) / channelMax
	gf := float64(c.G) / channelMax
	bf := float64(c.B) / channelMax

	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	delta := hi - lo

	v = hi
	if hi == 0 {
		return 0, 0, 0
	}
	s = delta / hi
	if delta == 0 {
		return 0, s, v
	}

	switch hi {
	case rf:
		h = (gf - bf) / delta
		if gf < bf {
			h += 6
		}
	case gf:
		h = 2 + (bf-rf)/delta
	default:
		h = 4 + (rf-gf)/delta
	}

	return h / 6, s, v
}

// Clamp01 limits x to [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func scaleChannel(x float64) uint8 {
	scaled := math.Round(x * channelMax)
	switch {
	case math.IsNaN(scaled), scaled < 0:
		return 0
	case scaled > channelMax:
		return channelMax
	default:
		return uint8(scaled)
	}
}
