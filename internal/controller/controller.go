package controller

import (
	"context"

	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/link"
	"github.com/nerrad567/gray-logic-node/internal/peripheral"
)

// eventBuffer is how many inbound events queue before messages are dropped.
const eventBuffer = 32

// Link is the session the controller runs. *link.Lifecycle satisfies it.
type Link interface {
	Run(ctx context.Context, sink link.Sink) error
	OnStateChange(fn link.Observer)
}

type eventKind int

const (
	eventMessage eventKind = iota
	eventLinkState
)

type event struct {
	kind  eventKind
	msg   link.Message
	state link.State
}

// Controller serialises link messages, link state changes and button
// presses onto one goroutine and hands them to a Dispatcher.
type Controller struct {
	dispatcher *Dispatcher
	link       Link
	button     peripheral.Button
	onPress    func()
	logger     Logger

	events chan event
}

// New creates a Controller. button may be nil.
func New(dispatcher *Dispatcher, lnk Link, button peripheral.Button) *Controller {
	return &Controller{
		dispatcher: dispatcher,
		link:       lnk,
		button:     button,
		logger:     noopLogger{},
		events:     make(chan event, eventBuffer),
	}
}

// SetLogger sets the logger.
func (c *Controller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// OnButtonPress registers a callback run for every button press before it
// is handled.
func (c *Controller) OnButtonPress(fn func()) {
	c.onPress = fn
}

// Run applies the boot state, runs the link and handles events until the
// link ends.
//
// It returns nil after ctx is cancelled, the link's error when the session
// fails, and ErrMaintenanceRequested after a maintenance command. Run must
// only be called once.
func (c *Controller) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.link.OnStateChange(func(s link.State) {
		c.enqueue(runCtx, event{kind: eventLinkState, state: s})
	})

	c.dispatcher.ApplyBoot()

	linkDone := make(chan error, 1)
	go func() {
		linkDone <- c.link.Run(runCtx, func(m link.Message) {
			c.offer(event{kind: eventMessage, msg: m})
		})
	}()

	var presses <-chan struct{}
	if c.button != nil {
		presses = c.button.Presses()
	}

	for {
		select {
		case err := <-linkDone:
			c.dispatcher.SetOnline(false)
			return err

		case <-presses:
			if c.onPress != nil {
				c.onPress()
			}
			c.logger.Info("button pressed")
			c.dispatcher.Execute(ToggleRelay{}, device.StateHistorySourceButton)

		case ev := <-c.events:
			if c.handle(ev) == OutcomeMaintenance {
				c.logger.Info("closing link for maintenance")
				cancel()
				<-linkDone
				c.dispatcher.SetOnline(false)
				return ErrMaintenanceRequested
			}
		}
	}
}

func (c *Controller) handle(ev event) Outcome {
	switch ev.kind {
	case eventLinkState:
		ready := ev.state == link.StateReady
		c.dispatcher.SetOnline(ready)
		if ready {
			c.dispatcher.PublishState()
		}
		return OutcomeIgnored
	default:
		return c.dispatcher.Dispatch(ev.msg.Topic, ev.msg.Payload)
	}
}

// offer hands a message to the loop without blocking. It runs on the
// transport's delivery goroutine, which must stay free to read broker
// acknowledgements, so a full queue drops the message.
func (c *Controller) offer(ev event) {
	select {
	case c.events <- ev:
	default:
		c.dispatcher.Drop(ev.msg.Topic)
	}
}

// enqueue hands a link state change to the loop. It gives up once ctx is
// done so the link never blocks on a stopped controller.
func (c *Controller) enqueue(ctx context.Context, ev event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
