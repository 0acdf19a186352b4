// Package metrics wraps the gateway's Prometheus collectors behind nil-safe
// helpers so callers can run without metrics in tests.
package metrics
