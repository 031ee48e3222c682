// Package link manages the lifecycle of a node's broker session.
//
// A Lifecycle walks Disconnected → Connecting → Subscribing → Ready and
// back to Disconnected. It connects once, subscribes to the node's inbound
// topics and forwards every message to a sink until the context ends or
// the transport reports the session lost. There is no reconnect loop:
// a lost link ends Run with ErrLinkLost and the process supervisor
// restarts the node.
package link
