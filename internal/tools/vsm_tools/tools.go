package vsm_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/common"
)

// Operations recorded on tool spans and audit records.
const (
	operationClassify = "classify"
	operationLearn    = "learn"
	operationInfo     = "info"
	operationExport   = "export"
	operationSnapshot = "snapshot"
	operationJournal  = "journal"
)

// RegisterVSMTools registers the classifier tools with the MCP server.
// In read-only mode the tools that change the model or write files are skipped.
func RegisterVSMTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	classifyTool := mcp.NewTool("vsm_classify",
		mcp.WithDescription("Classify an email into a category (Work, Personal, Promotion, Social, Spam, Phishing, Game, Education). "+
			"Pass subject/sender/body for one email, or 'emails' for a batch."),
		mcp.WithString("subject",
			mcp.Description("Email subject"),
		),
		mcp.WithString("sender",
			mcp.Description("Sender address"),
		),
		mcp.WithString("body",
			mcp.Description("Email body text"),
		),
		mcp.WithArray("emails",
			mcp.Description("Batch of emails, each an object with subject, sender and body (or text)"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	)
	s.AddTool(classifyTool, common.InstrumentedToolHandlerWithOperation("vsm_classify", operationClassify, sc, handleClassify(sc)))

	infoTool := mcp.NewTool("vsm_model_info",
		mcp.WithDescription("Describe the resident model: state, dimensions, labels, vocabulary fingerprint and learned batch count"),
	)
	s.AddTool(infoTool, common.InstrumentedToolHandlerWithOperation("vsm_model_info", operationInfo, sc, handleModelInfo(sc)))

	batchesTool := mcp.NewTool("vsm_recent_batches",
		mcp.WithDescription("List the newest learn batches from the journal (requires persistence)"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of batches to return (default: 10)"),
		),
	)
	s.AddTool(batchesTool, common.InstrumentedToolHandlerWithOperation("vsm_recent_batches", operationJournal, sc, handleRecentBatches(sc)))

	if readOnly {
		return nil
	}

	learnTool := mcp.NewTool("vsm_learn",
		mcp.WithDescription("Learn from labelled emails, e.g. user corrections. Emails need a label and a body longer than 20 characters."),
		mcp.WithArray("emails",
			mcp.Required(),
			mcp.Description("Emails with subject, sender, body (or text) and label"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithBoolean("async",
			mcp.Description("Queue the batch and return its ID without waiting (default: false)"),
		),
	)
	s.AddTool(learnTool, common.InstrumentedToolHandlerWithOperation("vsm_learn", operationLearn, sc, handleLearn(sc)))

	exportTool := mcp.NewTool("vsm_export_model",
		mcp.WithDescription("Write the resident model, including adapted centroids, to a JSON artifact"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Destination file path"),
		),
	)
	s.AddTool(exportTool, common.InstrumentedToolHandlerWithOperation("vsm_export_model", operationExport, sc, handleExportModel(sc)))

	snapshotTool := mcp.NewTool("vsm_snapshot",
		mcp.WithDescription("Save the adapted centroids to the persistence store now (requires persistence)"),
	)
	s.AddTool(snapshotTool, common.InstrumentedToolHandlerWithOperation("vsm_snapshot", operationSnapshot, sc, handleSnapshot(sc)))

	return nil
}
