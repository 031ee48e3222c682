package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
)

// State is a link lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateReady
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transport is the broker session a Lifecycle drives. *mqtt.Client
// satisfies it.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Lost() <-chan error
	Close() error
}

// Message is one inbound message.
type Message struct {
	Topic   string
	Payload []byte
}

// Sink receives inbound messages. It is called on the transport's
// goroutines.
type Sink func(Message)

// Observer is told about every state change, in order.
type Observer func(State)

// Logger is the logging surface a Lifecycle needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Options configures a Lifecycle.
type Options struct {
	// Topics are subscribed in order once connected.
	Topics []string

	QoS byte

	// ConnectTimeout bounds Connect. Zero leaves it to the transport.
	ConnectTimeout time.Duration
}

// Lifecycle drives one broker session.
type Lifecycle struct {
	transport Transport
	opts      Options
	logger    Logger

	mu        sync.Mutex
	state     State
	running   bool
	observers []Observer
}

// New creates a Lifecycle in StateDisconnected.
func New(transport Transport, opts Options) *Lifecycle {
	return &Lifecycle{
		transport: transport,
		opts:      opts,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger.
func (l *Lifecycle) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// OnStateChange registers an observer. Observers run synchronously on the
// goroutine calling Run.
func (l *Lifecycle) OnStateChange(fn Observer) {
	l.mu.Lock()
	l.observers = append(l.observers, fn)
	l.mu.Unlock()
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run connects, subscribes and forwards inbound messages to sink.
//
// It returns nil when ctx is cancelled, ErrLinkLost when the transport
// drops the session, and ErrConnectFailed or ErrSubscribeFailed when the
// session never becomes ready. The transport is always closed on return.
//
// Parameters:
//   - ctx: Cancelling it ends the session cleanly
//   - sink: Receives every inbound message on the transport's goroutine
//
// Returns:
//   - error: nil, ErrLinkLost, ErrConnectFailed or ErrSubscribeFailed
func (l *Lifecycle) Run(ctx context.Context, sink Sink) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	l.setState(StateConnecting)
	if err := l.connect(ctx); err != nil {
		l.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	l.setState(StateSubscribing)
	handler := func(topic string, payload []byte) error {
		sink(Message{Topic: topic, Payload: append([]byte(nil), payload...)})
		return nil
	}
	for _, topic := range l.opts.Topics {
		if err := l.transport.Subscribe(topic, l.opts.QoS, handler); err != nil {
			l.teardown()
			return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
		}
	}

	l.setState(StateReady)

	select {
	case <-ctx.Done():
		l.teardown()
		return nil
	case err := <-l.transport.Lost():
		l.logger.Warn("link lost", "error", err)
		l.teardown()
		return fmt.Errorf("%w: %w", ErrLinkLost, err)
	}
}

func (l *Lifecycle) connect(ctx context.Context) error {
	if l.opts.ConnectTimeout <= 0 {
		return l.transport.Connect(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, l.opts.ConnectTimeout)
	defer cancel()
	return l.transport.Connect(cctx)
}

// teardown closes the transport. Failures are logged and swallowed.
func (l *Lifecycle) teardown() {
	if err := l.transport.Close(); err != nil {
		l.logger.Warn("link teardown failed", "error", err)
	}
	l.setState(StateDisconnected)
}

func (l *Lifecycle) setState(s State) {
	l.mu.Lock()
	if l.state == s {
		l.mu.Unlock()
		return
	}
	prev := l.state
	l.state = s
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	l.logger.Info("link state changed", "from", prev.String(), "to", s.String())
	for _, fn := range observers {
		fn(s)
	}
}
