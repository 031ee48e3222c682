// Package peripheral turns device snapshots into physical output.
//
// Hardware is reached through two capability interfaces:
//
//   - LedStrip: an addressable strip that can be filled with one colour
//   - RelaySwitch: a relay with a status indicator LED
//
// StripDriver and RelayDriver adapt those capabilities to the single Driver
// interface the controller uses, so command handling never needs to know
// which kind of node it is running on. The driver is selected once at
// startup by Open.
//
// The low-level hardware (bit-banging the strip, toggling GPIO lines) is an
// external concern. The Simulated* types stand in for it on development
// hosts and in tests; they log what real hardware would show.
//
// # Buttons
//
// A physical button is an event source, not a state mutator. Button exposes
// presses on a channel that the controller drains from its own event loop,
// so presses are serialised with network commands.
package peripheral
