package peripheral

// pressBuffer is how many unhandled presses a button queues before dropping.
const pressBuffer = 8

// Button delivers physical button presses as events.
type Button interface {
	// Presses returns a channel that receives one value per press.
	Presses() <-chan struct{}
}

// ChannelButton is a Button fed by an interrupt or polling routine through
// Press. Press never blocks; presses beyond the buffer are dropped.
type ChannelButton struct {
	presses chan struct{}
}

// NewChannelButton creates a ChannelButton.
func NewChannelButton() *ChannelButton {
	return &ChannelButton{presses: make(chan struct{}, pressBuffer)}
}

// Press records a press. It reports false when the press was dropped.
func (b *ChannelButton) Press() bool {
	select {
	case b.presses <- struct{}{}:
		return true
	default:
		return false
	}
}

// Presses implements Button.
func (b *ChannelButton) Presses() <-chan struct{} {
	return b.presses
}
