// Package config handles loading and validating Gray Logic node runtime settings.
//
// This package manages:
//   - Loading settings from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Runtime settings describe how the node runs (logging, MQTT transport
// options, history database, telemetry). What the node is (broker address,
// client id, pin assignments) lives in the device record handled by the
// nodeconfig package.
//
// Security Considerations:
//   - MQTT credentials and InfluxDB tokens should be set via environment variables
//   - The settings file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/node.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Node.ConfigPath)
package config
