// Package controller turns inbound link messages and button presses into
// device state changes.
//
// A Dispatcher parses control payloads into Commands, applies them to the
// device.State, drives the peripheral and publishes the resulting state.
// A Controller owns the event loop: the link, the button and link-ready
// notifications all feed one channel so that state is only ever touched
// from a single goroutine.
//
// Control payloads have the form "<tag>:<value>" or a bare token:
//
//	h:180        s:50        b:20        power:on
//	rgb:255:0:0  toggle      state?      webrepl
//
// The config topic carries a JSON replacement for the persisted node
// configuration.
package controller
