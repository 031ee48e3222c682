package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps paho.mqtt.golang for a single node session.
//
// A Client connects once. When the broker session drops the loss is
// reported on Lost() and the client stays disconnected; reconnecting is
// left to whoever supervises the process.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client  pahomqtt.Client
	opts    Options
	factory func(*pahomqtt.ClientOptions) pahomqtt.Client

	connected bool
	connMu    sync.RWMutex

	lost     chan error
	lostOnce sync.Once

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on paho's goroutines and should hand the message
// off rather than block.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// New creates an unconnected client for the given session options.
func New(opts Options) *Client {
	return newWithFactory(opts, pahomqtt.NewClient)
}

func newWithFactory(opts Options, factory func(*pahomqtt.ClientOptions) pahomqtt.Client) *Client {
	return &Client{
		opts:    opts,
		factory: factory,
		lost:    make(chan error, 1),
	}
}

// Options returns the session options the client was built with.
func (c *Client) Options() Options {
	return c.opts
}

// Connect establishes the broker session.
//
// It performs the following setup:
//  1. Builds connection options (broker URL, auth, TLS)
//  2. Configures Last Will and Testament on {client_id}/status
//  3. Waits for the CONNACK, bounded by ConnectTimeout and ctx
//  4. Publishes "online" (retained) to {client_id}/status
//
// Returns:
//   - error: wraps ErrConnectionFailed on refusal or timeout
func (c *Client) Connect(ctx context.Context) error {
	if c.opts.ClientID == "" {
		return ErrMissingClientID
	}
	if c.IsConnected() {
		return nil
	}

	opts := buildClientOptions(c.opts)
	configureLWT(opts, c.opts.ClientID)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleLost(err)
	})

	c.client = c.factory(opts)
	token := c.client.Connect()

	timeout := c.opts.connectTimeout()
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-token.Done():
	case <-waitCtx.Done():
		c.client.Disconnect(0)
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
		}
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	if err := c.Publish(Topics{}.Status(c.opts.ClientID), []byte(StatusOnline), 1, true); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("publishing online status failed", "error", err)
		}
	}

	return nil
}

// handleLost is called by paho when the session drops.
func (c *Client) handleLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if err == nil {
		err = ErrConnectionLost
	} else {
		err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}

	c.lostOnce.Do(func() {
		c.lost <- err
	})
}

// Lost delivers at most one error, when the broker session drops.
func (c *Client) Lost() <-chan error {
	return c.lost
}

// Close gracefully disconnects from the MQTT broker.
//
// It publishes "offline" (retained) so subscribers can tell a clean stop
// from a crash, then disconnects. Errors are not returned; a connection
// that is already gone is not a failure.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(Topics{}.Status(c.opts.ClientID), 1, true, []byte(StatusOffline))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// HealthCheck verifies the MQTT connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
