// Package google manages Google OAuth2 tokens for Gmail access.
//
// Tokens are stored per account under the user cache directory
// (~/.cache/inboxsort/google-<account>.token) and refreshed on use.
// The OAuth client credentials come from GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET.
package google
