// Package color converts between the hue/saturation/value representation the
// node stores and the 8-bit RGB channels an LED strip consumes.
//
// All functions are pure and operate on normalised components in [0, 1].
// Callers are responsible for wrapping or clamping inputs before conversion;
// the device package does this in its setters.
//
// # Usage
//
//	r, g, b := color.HSVToRGB(0.5, 1, 1)
//	px := color.ToRGB8(r, g, b) // {0 255 255}
package color
