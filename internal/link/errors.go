package link

import "errors"

var (
	// ErrConnectFailed is returned when the session cannot be established.
	ErrConnectFailed = errors.New("link: connect failed")

	// ErrSubscribeFailed is returned when an inbound topic cannot be subscribed.
	ErrSubscribeFailed = errors.New("link: subscribe failed")

	// ErrLinkLost is returned when the transport drops a ready session.
	ErrLinkLost = errors.New("link: connection lost")

	// ErrAlreadyRunning is returned when Run is called on an active lifecycle.
	ErrAlreadyRunning = errors.New("link: already running")
)
