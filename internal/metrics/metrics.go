// Package metrics provides interfaces and implementations for collecting
// Robin server metrics. It defines the Collector interface for recording
// metrics and the Server interface for exposing them, mirroring the
// teacher's metrics package shape (Collector interface, no-op +
// Prometheus implementations, an HTTP exposition server).
package metrics

import "context"

// Collector defines the interface for recording Robin server metrics.
// This is an ambient concern carried regardless of spec.md's Non-goals,
// per SPEC_FULL.md §4.10.
type Collector interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()

	// Worker pool metrics. kind is "real" or "elastic".
	WorkerSpawned(kind string)
	WorkerRetired(kind string)

	// Command metrics
	CommandProcessed(opcode string)

	// Authentication metrics
	AuthAttempt(success bool)

	// Directory metrics
	CipPosted()
	FollowProcessed(code int)
}

// Server defines the interface for a metrics HTTP server.
type Server interface {
	// Start begins serving metrics. It blocks until the context is
	// canceled or an error occurs.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the metrics server.
	Shutdown(ctx context.Context) error
}
