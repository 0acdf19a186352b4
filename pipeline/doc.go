// Package pipeline wires the gateway's request flow: cache gate lookup,
// ordered provider fallback, post-hoc consistency verification, cache
// write-back and trace emission. The coordinator is the only component
// that sees the whole request lifecycle.
package pipeline
