// Package device holds the node's in-memory device state and its history.
//
// State is the single mutable record of what the node is currently doing:
// power, the canonical hue/saturation/value colour and, for relay nodes,
// the observed relay pin position. It is owned by the controller goroutine
// and mutated only through setters that clamp their input and report whether
// anything actually changed.
//
// Peripheral drivers never see State itself. They receive a Snapshot, an
// immutable value copy taken at apply time.
//
// # Clamping
//
// Remote inputs are accepted permissively: out-of-range numbers are clamped
// into range rather than rejected. Non-numeric input never reaches this
// package; it is rejected by the command parser.
//
//	st := device.NewState(device.Defaults{Power: true, Brightness: 2})
//	st.SetBrightness(150) // stored as 1.0
//	st.SetBrightness(-10) // stored as 0.0
//
// # History
//
// StateHistoryRepository records applied snapshots in SQLite so an operator
// can see what the node was told to do while the broker or time-series
// database was unreachable.
package device
