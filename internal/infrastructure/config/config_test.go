package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  config_path: "/tmp/node/config.json"
mqtt:
  port: 8883
  tls: true
  qos: 0
  connect_timeout: 5
peripheral:
  driver: "simulated"
database:
  enabled: true
  path: "/tmp/history.db"
api:
  enabled: true
  host: "127.0.0.1"
  port: 9300
metrics:
  enabled: true
maintenance:
  binary: "/usr/bin/webrepl"
  args: ["--port", "8266"]
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ConfigPath != "/tmp/node/config.json" {
		t.Errorf("Node.ConfigPath = %q, want %q", cfg.Node.ConfigPath, "/tmp/node/config.json")
	}
	if cfg.MQTT.Port != 8883 || !cfg.MQTT.TLS {
		t.Errorf("MQTT = %+v, want port 8883 with TLS", cfg.MQTT)
	}
	if cfg.MQTT.QoS != 0 {
		t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}
	if got := cfg.GetConnectTimeout().Seconds(); got != 5 {
		t.Errorf("GetConnectTimeout() = %v, want 5", got)
	}
	if !cfg.API.Enabled || cfg.API.Port != 9300 || !cfg.Metrics.Enabled {
		t.Errorf("API = %+v, Metrics = %+v", cfg.API, cfg.Metrics)
	}
	if cfg.API.Timeouts.Idle != 60 {
		t.Errorf("API.Timeouts.Idle = %d, want default 60", cfg.API.Timeouts.Idle)
	}
	if len(cfg.Maintenance.Args) != 2 {
		t.Errorf("Maintenance.Args = %v, want 2 entries", cfg.Maintenance.Args)
	}

	// Unset keys keep their defaults
	if cfg.Node.HardwareIDPath != "/etc/machine-id" {
		t.Errorf("Node.HardwareIDPath = %q, want default", cfg.Node.HardwareIDPath)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/node.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults for missing file", err)
	}

	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
mqtt:
  port: 0
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for mqtt.port 0, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "invalid port low", mutate: func(c *Config) { c.MQTT.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.MQTT.Port = 70000 }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "zero connect timeout", mutate: func(c *Config) { c.MQTT.ConnectTimeout = 0 }, wantErr: true},
		{name: "password without username", mutate: func(c *Config) { c.MQTT.Auth.Password = "x" }, wantErr: true},
		{name: "missing driver", mutate: func(c *Config) { c.Peripheral.Driver = "" }, wantErr: true},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{name: "database disabled without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: false},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "node"
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Bucket = "node"
			},
			wantErr: false,
		},
		{name: "metrics without api", mutate: func(c *Config) { c.Metrics.Enabled = true }, wantErr: true},
		{
			name: "metrics with api",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.Metrics.Enabled = true
			},
			wantErr: false,
		},
		{
			name: "api port out of range",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		MQTT:     MQTTConfig{ConnectTimeout: 7},
		Database: DatabaseConfig{RetentionHours: 2},
	}

	if got := cfg.GetConnectTimeout().Seconds(); got != 7 {
		t.Errorf("GetConnectTimeout() = %v, want 7", got)
	}
	if got := cfg.GetRetention().Hours(); got != 2 {
		t.Errorf("GetRetention() = %v, want 2", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_NODE_CONFIG_PATH", "/custom/config.json")
	t.Setenv("GRAYLOGIC_NODE_BROKER", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_NODE_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_NODE_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_NODE_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_NODE_API_PORT", "8081")
	t.Setenv("GRAYLOGIC_NODE_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Node.ConfigPath != "/custom/config.json" {
		t.Errorf("Node.ConfigPath = %q, want %q", cfg.Node.ConfigPath, "/custom/config.json")
	}
	if cfg.MQTT.BrokerOverride != "mqtt.example.com" {
		t.Errorf("MQTT.BrokerOverride = %q, want %q", cfg.MQTT.BrokerOverride, "mqtt.example.com")
	}
	if cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT.Port = %d, want 8883", cfg.MQTT.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.API.Port != 8081 {
		t.Errorf("API.Port = %d, want 8081", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_NODE_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Node.ConfigPath == "" {
		t.Error("defaultConfig should have non-empty Node.ConfigPath")
	}
	if cfg.MQTT.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}
	if cfg.Peripheral.Driver != "simulated" {
		t.Errorf("defaultConfig Peripheral.Driver = %q, want %q", cfg.Peripheral.Driver, "simulated")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate: %v", err)
	}
}
