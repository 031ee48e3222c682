// Package metrics exports node counters and gauges to Prometheus.
//
// The registry is served by the API server on /metrics when
// metrics.enabled is set in the node settings:
//
//	reg := metrics.NewRegistry()
//	m := metrics.New(reg)
//	router.Handle("/metrics", metrics.Handler(reg))
//
// All Observe methods are safe to call on a nil *Metrics.
package metrics
