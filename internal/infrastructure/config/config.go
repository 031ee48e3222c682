package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root runtime settings structure for a Gray Logic node.
// Settings are loaded from YAML and can be overridden by environment variables.
//
// The device record itself (broker, client id, pins) lives in the JSON file
// named by Node.ConfigPath and is owned by the nodeconfig package.
type Config struct {
	Node        NodeConfig        `yaml:"node"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Peripheral  PeripheralConfig  `yaml:"peripheral"`
	Database    DatabaseConfig    `yaml:"database"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	API         APIConfig         `yaml:"api"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// NodeConfig locates the persisted device record and hardware identity.
type NodeConfig struct {
	// ConfigPath is the device record JSON file. Empty keeps it in memory only.
	ConfigPath string `yaml:"config_path"`

	// HardwareIDPath is read to derive the client id on first boot.
	HardwareIDPath string `yaml:"hardware_id_path"`
}

// MQTTConfig contains MQTT connection settings. The broker host and client
// id come from the device record.
type MQTTConfig struct {
	Port int            `yaml:"port"`
	TLS  bool           `yaml:"tls"`
	Auth MQTTAuthConfig `yaml:"auth"`
	QoS  int            `yaml:"qos"`

	// ConnectTimeout bounds the initial connection attempt (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// KeepAlive is the MQTT keepalive interval (seconds).
	KeepAlive int `yaml:"keep_alive"`

	// BrokerOverride replaces the device record's broker when set.
	BrokerOverride string `yaml:"broker_override"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PeripheralConfig selects the hardware backend.
type PeripheralConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig contains SQLite state history settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionHours prunes history older than this at startup. 0 keeps everything.
	RetentionHours int `yaml:"retention_hours"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// MetricsConfig contains Prometheus exporter settings. Metrics are served
// on the API server at /metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MaintenanceConfig describes the external maintenance entry point started
// when the node is told to enter maintenance mode.
type MaintenanceConfig struct {
	// Binary is the program to run. Empty means maintenance mode only stops
	// the control loop.
	Binary string   `yaml:"binary"`
	Args   []string `yaml:"args"`

	// GracefulTimeout is how long the program gets to exit on shutdown (seconds).
	GracefulTimeout int `yaml:"graceful_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads settings from a YAML file and applies environment variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when the file does not exist
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
// For example: GRAYLOGIC_NODE_MQTT_USERNAME, GRAYLOGIC_NODE_CONFIG_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Nodes run fine on defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ConfigPath:     "/var/lib/graylogic-node/config.json",
			HardwareIDPath: "/etc/machine-id",
		},
		MQTT: MQTTConfig{
			Port:           1883,
			QoS:            1,
			ConnectTimeout: 10,
			KeepAlive:      60,
		},
		Peripheral: PeripheralConfig{
			Driver: "simulated",
		},
		Database: DatabaseConfig{
			Enabled:        false,
			Path:           "/var/lib/graylogic-node/history.db",
			WALMode:        true,
			BusyTimeout:    5,
			RetentionHours: 24 * 30,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Port: 9273,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Maintenance: MaintenanceConfig{
			GracefulTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_NODE_CONFIG_PATH"); v != "" {
		cfg.Node.ConfigPath = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_NODE_BROKER"); v != "" {
		cfg.MQTT.BrokerOverride = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, "mqtt.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}
	if c.MQTT.Auth.Password != "" && c.MQTT.Auth.Username == "" {
		errs = append(errs, "mqtt.auth.username is required when a password is set")
	}

	if c.Peripheral.Driver == "" {
		errs = append(errs, "peripheral.driver is required")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port < 0 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 0 and 65535")
	}
	if c.Metrics.Enabled && !c.API.Enabled {
		errs = append(errs, "metrics require the api server to be enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the MQTT connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.ConnectTimeout) * time.Second
}

// GetRetention returns the state history retention period. Zero disables pruning.
func (c *Config) GetRetention() time.Duration {
	return time.Duration(c.Database.RetentionHours) * time.Hour
}
