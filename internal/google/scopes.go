package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the Google OAuth scopes inboxsort asks for.
// Classification and learning only ever read message metadata and snippets.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
}
