package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when Options.ConnectTimeout is zero.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is used when Options.KeepAlive is zero.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Availability payloads published on the status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Options describes one broker session.
type Options struct {
	// Broker is a host name, host:port or a full URL (tcp://, ssl://).
	Broker   string
	Port     int
	TLS      bool
	ClientID string
	Username string
	Password string
	QoS      byte

	ConnectTimeout time.Duration
	KeepAlive      time.Duration
}

// NewOptions combines the device record's broker and client id with the
// runtime MQTT settings. A non-empty BrokerOverride wins over broker.
func NewOptions(cfg config.MQTTConfig, broker, clientID string) Options {
	if cfg.BrokerOverride != "" {
		broker = cfg.BrokerOverride
	}
	return Options{
		Broker:         broker,
		Port:           cfg.Port,
		TLS:            cfg.TLS,
		ClientID:       clientID,
		Username:       cfg.Auth.Username,
		Password:       cfg.Auth.Password,
		QoS:            byte(cfg.QoS),
		ConnectTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
		KeepAlive:      time.Duration(cfg.KeepAlive) * time.Second,
	}
}

// BrokerURL returns the URL handed to paho.
func (o Options) BrokerURL() string {
	if strings.Contains(o.Broker, "://") {
		return o.Broker
	}

	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	if strings.Contains(o.Broker, ":") {
		return fmt.Sprintf("%s://%s", scheme, o.Broker)
	}

	port := o.Port
	if port == 0 {
		port = 1883
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Broker, port)
}

func (o Options) connectTimeout() time.Duration {
	if o.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return o.ConnectTimeout
}

// buildClientOptions creates paho MQTT options for a node session.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - TLS configuration (if enabled)
//   - Clean session mode
//
// Auto-reconnect is off: a lost session ends the process and the
// supervisor restarts it.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(o.BrokerURL())
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(o.connectTimeout())

	keepAlive := o.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	if o.TLS || strings.HasPrefix(o.Broker, "ssl://") || strings.HasPrefix(o.Broker, "tls://") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// Topic: {client_id}/status
// QoS: 1
// Retained: true (new subscribers see last status)
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	opts.SetWill(Topics{}.Status(clientID), StatusOffline, 1, true)
}
