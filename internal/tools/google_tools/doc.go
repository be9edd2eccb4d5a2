// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The Gmail tools need a stored token per account. The OAuth flow:
//  1. Call google_auth_status to see whether the account is authorized
//  2. If not, call google_get_auth_url to get the authorization URL
//  3. User visits the URL and authorizes read access to Gmail
//  4. Call google_save_auth_code with the code to save the token
//
// The CLI equivalent is 'inboxsort auth --account <name>'.
package google_tools
