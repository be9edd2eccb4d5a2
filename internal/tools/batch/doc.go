// Package batch provides helpers for MCP tools that accept one item or many.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Processing items independently so one bad item does not fail the batch
//   - Formatting batch results in a consistent structure
package batch
