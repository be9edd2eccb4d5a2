// Package common provides shared helpers for the inboxsort MCP tools:
// argument parsing and the instrumented handler wrapper that records
// tool metrics, spans and audit log entries.
package common
