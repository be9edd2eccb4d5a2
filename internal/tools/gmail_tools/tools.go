package gmail_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/google"
	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/batch"
	"github.com/teemow/inboxsort/internal/tools/common"
)

// classifyInboxResult is returned by gmail_classify_inbox.
type classifyInboxResult struct {
	Query    string                     `json:"query"`
	Total    int                        `json:"total"`
	ByLabel  map[string]int             `json:"by_label"`
	Messages []server.ClassifiedMessage `json:"messages"`
}

// RegisterGmailTools registers the Gmail tools with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	classifyInboxTool := mcp.NewTool("gmail_classify_inbox",
		mcp.WithDescription("Classify Gmail messages matching a search query into categories"),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default: the configured classify query, usually 'in:inbox')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to classify"),
		),
	)

	s.AddTool(classifyInboxTool, common.InstrumentedToolHandlerWithOperation("gmail_classify_inbox", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClassifyInbox(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	learnLabelsTool := mcp.NewTool("gmail_learn_labels",
		mcp.WithDescription("Learn from Gmail messages that carry category labels (label:<Category>)"),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("labels",
			mcp.Description("Category label or JSON array of labels (default: the configured learn labels)"),
		),
		mcp.WithNumber("maxPerLabel",
			mcp.Description("Maximum number of messages fetched per label"),
		),
	)

	s.AddTool(learnLabelsTool, common.InstrumentedToolHandlerWithOperation("gmail_learn_labels", "learn", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLearnLabels(ctx, request, sc)
		}))

	return nil
}

func handleClassifyInbox(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)
	query := common.GetStringArg(args, "query", sc.Config().Gmail.ClassifyQuery)
	maxResults := common.GetIntArg(args, "maxResults", 0)

	msgs, err := sc.ClassifyInbox(ctx, account, query, maxResults)
	if err != nil {
		return gmailError(sc, account, "classify inbox", err), nil
	}

	res := classifyInboxResult{
		Query:    query,
		Total:    len(msgs),
		ByLabel:  make(map[string]int),
		Messages: msgs,
	}
	for _, m := range msgs {
		res.ByLabel[m.Label]++
	}
	return common.JSONResult(res)
}

func handleLearnLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	var labels []string
	if raw, ok := args["labels"]; ok {
		var err error
		labels, err = batch.ParseStringOrArray(raw, "labels")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	res, err := sc.LearnFromGmail(ctx, account, labels, common.GetIntArg(args, "maxPerLabel", 0))
	common.AnnotateBatch(ctx, res.BatchID)
	if err != nil {
		return gmailError(sc, account, "learn from labels", err), nil
	}
	return common.JSONResult(res)
}

// gmailError turns a Gmail failure into a tool error. A missing token gets
// the authorization instructions.
func gmailError(sc *server.ServerContext, account, action string, err error) *mcp.CallToolResult {
	if errors.Is(err, server.ErrNoGmailToken) {
		if account == "" {
			account = sc.DefaultAccount()
		}
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}
