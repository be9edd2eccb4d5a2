// Package gmail reads messages from the Gmail API for classification and
// learning.
//
// Only message metadata is fetched: the Subject and From headers plus the
// snippet Gmail computes. Message bodies are never downloaded or decoded.
//
// Authentication uses the per-account token files of the google package
// (~/.cache/inboxsort/).
//
// Example usage:
//
//	client, err := gmail.NewClientForAccount(ctx, "default")
//	if err != nil {
//	    return err
//	}
//	msgs, err := client.ListMessages(ctx, gmail.LabelQuery("Work"), 50)
package gmail
