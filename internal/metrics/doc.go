// Package metrics records update-check observability data.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks:
//
//	engine := discovery.New(discovery.Config{Recorder: metrics.NoopRecorder{}})
//
// The daemon swaps in a PrometheusRecorder when monitoring.metrics.enabled is
// set and serves it through HTTPHandler.
package metrics
