package gmail

import (
	"context"
	"fmt"
	"html"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxsort/internal/google"
	"github.com/teemow/inboxsort/internal/vsm"
)

// maxPageSize is the largest page the Gmail list endpoint returns.
const maxPageSize = 100

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a Gmail client authorized with the stored
// token of account.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	httpClient, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), err)
	}
	return NewClientWithOptions(ctx, account, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Gmail client from explicit API options.
func NewClientWithOptions(ctx context.Context, account string, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, account: account}, nil
}

// Message is the part of a Gmail message the classifier looks at.
type Message struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"label_ids,omitempty"`
}

// Email converts the message for classification or learning. The snippet
// stands in for the body.
func (m Message) Email(label string) vsm.Email {
	return vsm.Email{
		Subject: m.Subject,
		Sender:  m.From,
		Body:    m.Snippet,
		Label:   label,
	}
}

// ListMessageIDs lists up to maxResults message IDs matching the query.
func (c *Client) ListMessageIDs(ctx context.Context, q string, maxResults int64) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		remaining := maxResults - int64(len(ids))
		if remaining <= 0 {
			break
		}
		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List("me").Q(q).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// GetMessage fetches the Subject and From headers and the snippet of one message.
func (c *Client) GetMessage(ctx context.Context, id string) (Message, error) {
	m, err := c.svc.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("Subject", "From").
		Context(ctx).
		Do()
	if err != nil {
		return Message{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Subject:  HeaderValue(m, "Subject"),
		From:     HeaderValue(m, "From"),
		Snippet:  html.UnescapeString(m.Snippet),
		LabelIDs: m.LabelIds,
	}, nil
}

// ListMessages lists and fetches up to maxResults messages matching the query.
func (c *Client) ListMessages(ctx context.Context, q string, maxResults int64) ([]Message, error) {
	ids, err := c.ListMessageIDs(ctx, q, maxResults)
	if err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(ids))
	for _, id := range ids {
		m, err := c.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// LabelQuery is the search query for messages carrying a user label.
// Spaces in label names are written as dashes in Gmail search.
func LabelQuery(label string) string {
	return "label:" + strings.ReplaceAll(strings.TrimSpace(label), " ", "-")
}

// HeaderValue extracts a header value from a Gmail message
func HeaderValue(m *gmail.Message, header string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}
