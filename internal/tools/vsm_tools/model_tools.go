package vsm_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/common"
	"github.com/teemow/inboxsort/internal/vsm"
)

const defaultBatchLimit = 10

// exportResult describes a written model artifact.
type exportResult struct {
	Path        string   `json:"path"`
	Dimensions  int      `json:"dimensions"`
	Labels      []string `json:"labels"`
	Fingerprint string   `json:"fingerprint"`
}

func handleModelInfo(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.JSONResult(sc.Service().Info())
	}
}

func handleExportModel(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := common.GetStringArg(request.GetArguments(), "path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		if sc.Service().State() != vsm.StateTrained {
			return mcp.NewToolResultError("No model is loaded; train or load a model first"), nil
		}

		m := sc.Service().ExportModel()
		if err := m.Save(path); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export model: %v", err)), nil
		}
		return common.JSONResult(exportResult{
			Path:        path,
			Dimensions:  len(m.Vocabulary),
			Labels:      m.Labels(),
			Fingerprint: m.Fingerprint(),
		})
	}
}

func handleSnapshot(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := sc.SnapshotCentroids(ctx)
		if errors.Is(err, server.ErrPersistenceDisabled) {
			return mcp.NewToolResultError("Persistence is disabled; set persistence.enabled in the config"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save snapshot: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved %d centroids", n)), nil
	}
}

func handleRecentBatches(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := common.GetIntArg(request.GetArguments(), "limit", defaultBatchLimit)
		if limit <= 0 {
			limit = defaultBatchLimit
		}

		batches, err := sc.RecentBatches(ctx, limit)
		if errors.Is(err, server.ErrPersistenceDisabled) {
			return mcp.NewToolResultError("Persistence is disabled; set persistence.enabled in the config"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read journal: %v", err)), nil
		}
		return common.JSONResult(batches)
	}
}
