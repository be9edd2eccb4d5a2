// Package gmail_tools provides MCP tools that connect the classifier to a
// Gmail mailbox.
//
//   - gmail_classify_inbox: classify the messages matching a search query
//   - gmail_learn_labels: learn from messages that carry category labels
//     (hidden in read-only mode)
//
// Messages are read through the Gmail client of the server context. Only the
// Subject and From headers and the snippet are used; the snippet stands in
// for the body.
package gmail_tools
