package vsm_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/batch"
	"github.com/teemow/inboxsort/internal/tools/common"
	"github.com/teemow/inboxsort/internal/vsm"
)

// queuedBatch is returned by an async vsm_learn call.
type queuedBatch struct {
	BatchID string `json:"batch_id"`
	Emails  int    `json:"emails"`
	Status  string `json:"status"`
}

func handleLearn(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		items, err := batch.ParseObjectOrArray(args["emails"], "emails")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		emails := make([]vsm.Email, 0, len(items))
		for i, item := range items {
			var e vsm.Email
			if err := batch.Decode(item, &e); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("emails[%d]: %v", i, err)), nil
			}
			emails = append(emails, e)
		}

		if common.GetBoolArg(args, "async", false) {
			id := sc.Service().Learn(emails)
			common.AnnotateBatch(ctx, id)
			return common.JSONResult(queuedBatch{BatchID: id, Emails: len(emails), Status: "queued"})
		}

		res, err := sc.LearnBatch(ctx, server.SourceTool, emails)
		common.AnnotateBatch(ctx, res.BatchID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to learn: %v", err)), nil
		}
		return common.JSONResult(res)
	}
}
