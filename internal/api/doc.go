// Package api provides the node's read-only HTTP status API.
//
// Routes:
//
//	GET /health              version, link state and dependency checks
//	GET /api/v1/state        last applied device state
//	GET /api/v1/history      state history (when the database is enabled)
//	GET /metrics             Prometheus metrics (when enabled)
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Control stays on MQTT; the API never changes device state.
package api
