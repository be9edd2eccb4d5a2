// Package server holds the runtime wiring of the inboxsort MCP server.
//
// # Key Components
//
// ServerContext carries the classifier service, configuration, optional
// SQLite store, metrics and lazily created Gmail clients per account. Its
// operations (LearnBatch, LearnFromGmail, ClassifyInbox, SnapshotCentroids)
// are shared by MCP tools and scheduled jobs.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. Readiness
// fails while the classifier has no trained model.
//
// HTTPServer mounts the MCP streamable HTTP transport at /mcp next to the
// liveness and readiness probes and records request metrics per route.
//
// MetricsServer exposes Prometheus metrics and the health probes on a
// dedicated port, separate from the MCP transport.
package server
