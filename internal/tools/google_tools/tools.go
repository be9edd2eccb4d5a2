package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/google"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/common"
)

const operationAuth = "auth"

// authStatus is returned by google_auth_status.
type authStatus struct {
	Account    string `json:"account"`
	Authorized bool   `json:"authorized"`
}

// RegisterGoogleTools registers the Google OAuth tools with the MCP server.
// google_save_auth_code writes a token file and is skipped in read-only mode.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	statusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Report whether a Gmail account has a stored OAuth token"),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(statusTool, common.InstrumentedToolHandlerWithOperation("google_auth_status", operationAuth, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			account := accountOrDefault(request, sc)
			return common.JSONResult(authStatus{
				Account:    account,
				Authorized: google.HasTokenForAccount(account),
			})
		}))

	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize read access to Gmail for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandlerWithOperation("google_get_auth_url", operationAuth, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(request, sc)
		}))

	if readOnly {
		return nil
	}

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail authorization for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandlerWithOperation("google_save_auth_code", operationAuth, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func accountOrDefault(request mcp.CallToolRequest, sc *server.ServerContext) string {
	if account := common.GetAccountFromArgs(request.GetArguments()); account != "" {
		return account
	}
	return sc.DefaultAccount()
}

func handleGetAuthURL(request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := accountOrDefault(request, sc)

	authURL, err := google.GetAuthURL()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot start authorization: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Gmail read access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant read access to Gmail
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := accountOrDefault(request, sc)

	authCode := common.GetStringArg(request.GetArguments(), "authCode", "")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := google.SaveTokenForAccount(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. The Gmail tools can now use this account.", account)), nil
}
