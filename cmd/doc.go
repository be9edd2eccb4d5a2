// Package cmd implements the command-line interface for inboxsort.
//
// This package provides the following commands:
//   - train: Build a model artifact from a labelled JSON corpus
//   - classify: Classify emails from flags, a JSON file or a Gmail query
//   - learn: Fold labelled emails or Gmail labels into the centroids
//   - export: Write the resident model, including adapted centroids
//   - auth: Authorize Gmail read access for an account
//   - serve: Start the MCP server
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command reads inboxsort.yaml (or --config) first; flags override it.
package cmd
