// Package logging provides structured logging for a Gray Logic node.
//
// This package wraps Go's standard log/slog package so every component
// of the node logs with the same fields and format.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("link ready", "client_id", id)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
