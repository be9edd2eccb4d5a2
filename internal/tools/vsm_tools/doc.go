// Package vsm_tools provides MCP tools for the inboxsort classifier.
//
// Read tools:
//   - vsm_classify: classify one email or a batch of emails
//   - vsm_model_info: state, dimensions and labels of the resident model
//   - vsm_recent_batches: newest entries of the learn-batch journal
//
// Write tools (hidden in read-only mode):
//   - vsm_learn: fold labelled emails into the centroids
//   - vsm_export_model: write the resident model to an artifact file
//   - vsm_snapshot: save the adapted centroids to the store
package vsm_tools
