package mqtt

import "fmt"

// Topic suffixes below the node's client id.
const (
	TopicSuffixControl    = "control"
	TopicSuffixConfig     = "config"
	TopicSuffixState      = "state"
	TopicSuffixStateColor = "state/color"
	TopicSuffixStatus     = "status"
)

// Topics provides builders for node MQTT topics. Every topic is rooted at
// the node's client id.
//
//	topics := mqtt.Topics{}
//	controlTopic := topics.Control("graylogic_a1b2c3d4e5f6")
//	// Returns: "graylogic_a1b2c3d4e5f6/control"
type Topics struct{}

// Control returns the inbound command topic.
//
// Example: graylogic_a1b2c3d4e5f6/control
func (Topics) Control(clientID string) string {
	return fmt.Sprintf("%s/%s", clientID, TopicSuffixControl)
}

// Config returns the inbound configuration replacement topic.
//
// Example: graylogic_a1b2c3d4e5f6/config
func (Topics) Config(clientID string) string {
	return fmt.Sprintf("%s/%s", clientID, TopicSuffixConfig)
}

// State returns the on/off state topic.
//
// Example: graylogic_a1b2c3d4e5f6/state
func (Topics) State(clientID string) string {
	return fmt.Sprintf("%s/%s", clientID, TopicSuffixState)
}

// StateColor returns the colour state topic published by LED nodes.
//
// Example: graylogic_a1b2c3d4e5f6/state/color
func (Topics) StateColor(clientID string) string {
	return fmt.Sprintf("%s/%s", clientID, TopicSuffixStateColor)
}

// Status returns the availability topic carrying the LWT.
//
// Example: graylogic_a1b2c3d4e5f6/status
func (Topics) Status(clientID string) string {
	return fmt.Sprintf("%s/%s", clientID, TopicSuffixStatus)
}

// Inbound returns the topics a node subscribes to.
func (t Topics) Inbound(clientID string) []string {
	return []string{t.Control(clientID), t.Config(clientID)}
}
