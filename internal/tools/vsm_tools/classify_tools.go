package vsm_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/batch"
	"github.com/teemow/inboxsort/internal/tools/common"
	"github.com/teemow/inboxsort/internal/vsm"
)

func handleClassify(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		if raw, ok := args["emails"]; ok {
			items, err := batch.ParseObjectOrArray(raw, "emails")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			results := batch.ProcessBatch(items, func(item interface{}) (any, error) {
				var e vsm.Email
				if err := batch.Decode(item, &e); err != nil {
					return nil, err
				}
				return sc.Service().ClassifyContext(ctx, e.Subject, e.Sender, e.Body), nil
			})
			return common.JSONResult(batch.Summarize(results))
		}

		subject := common.GetStringArg(args, "subject", "")
		sender := common.GetStringArg(args, "sender", "")
		body := common.GetStringArg(args, "body", "")
		if subject == "" && sender == "" && body == "" {
			return mcp.NewToolResultError("subject, sender, body or emails is required"), nil
		}

		return common.JSONResult(sc.Service().ClassifyContext(ctx, subject, sender, body))
	}
}
