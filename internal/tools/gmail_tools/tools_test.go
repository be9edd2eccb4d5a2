package gmail_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/gmail"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/vsm"
)

func gmailMessage(id, subject, from, snippet string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:      id,
		Snippet: snippet,
		Payload: &gmailapi.MessagePart{Headers: []*gmailapi.MessagePartHeader{
			{Name: "Subject", Value: subject},
			{Name: "From", Value: from},
		}},
	}
}

// mailbox serves a fixed set of messages keyed by search query.
func mailbox(t *testing.T) *httptest.Server {
	t.Helper()
	byQuery := map[string][]string{
		"label:Work":      {"w1"},
		"label:Promotion": {"p1"},
		"in:inbox":        {"w1", "p1", "x1"},
		"is:unread":       {"x1"},
	}
	messages := map[string]*gmailapi.Message{
		"w1": gmailMessage("w1", "Roadmap meeting", "pm@corp.com", "agenda for the quarterly roadmap meeting"),
		"p1": gmailMessage("p1", "Weekend sale", "deals@shop.com", "discount coupon for the weekend sale"),
		"x1": gmailMessage("x1", "Verify your account now", "security@fake-bank.com", "confirm password urgently"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		res := &gmailapi.ListMessagesResponse{}
		for _, id := range byQuery[r.URL.Query().Get("q")] {
			res.Messages = append(res.Messages, &gmailapi.Message{Id: id})
		}
		_ = json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		m, ok := messages[strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(m)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	svc := vsm.New(vsm.Options{Logger: logging.Discard()})
	m, _, err := vsm.Train(context.Background(), &vsm.Corpus{Records: []vsm.Email{
		{Subject: "Meeting notes", Sender: "pm@corp.com", Body: "quarterly roadmap meeting agenda", Label: "Work"},
		{Subject: "50% off sale", Sender: "deals@shop.com", Body: "huge discount coupon today", Label: "Promotion"},
		{Subject: "Verify your account now", Sender: "security@fake-bank.com", Body: "confirm password urgently", Label: "Phishing"},
	}}, logging.Discard())
	require.NoError(t, err)
	_, err = svc.LoadModel(m)
	require.NoError(t, err)

	srv := mailbox(t)
	cfg := config.Default()
	cfg.Learn.Labels = []string{"Work", "Promotion"}

	sc, err := server.NewServerContext(context.Background(), server.Options{
		Service: svc,
		Config:  cfg,
		Logger:  logging.Discard().Logger(),
		GmailClients: func(ctx context.Context, account string) (*gmail.Client, error) {
			if account == "nobody" {
				return nil, server.ErrNoGmailToken
			}
			return gmail.NewClientWithOptions(ctx, account,
				option.WithEndpoint(srv.URL+"/"),
				option.WithHTTPClient(srv.Client()))
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleClassifyInbox(t *testing.T) {
	sc := newTestServerContext(t)

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantQuery string
		wantTotal int
		wantLabel map[string]int
	}{
		{
			name:      "default query",
			args:      map[string]interface{}{},
			wantQuery: "in:inbox",
			wantTotal: 3,
			wantLabel: map[string]int{"Work": 1, "Promotion": 1, "Phishing": 1},
		},
		{
			name:      "explicit query",
			args:      map[string]interface{}{"query": "is:unread", "maxResults": float64(5)},
			wantQuery: "is:unread",
			wantTotal: 1,
			wantLabel: map[string]int{"Phishing": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleClassifyInbox(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			require.False(t, result.IsError, resultText(t, result))

			var res classifyInboxResult
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
			assert.Equal(t, tt.wantQuery, res.Query)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantLabel, res.ByLabel)
		})
	}
}

func TestHandleLearnLabels(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]interface{}
		wantLearned int
		wantLabels  map[string]int
	}{
		{
			name:        "configured labels",
			args:        map[string]interface{}{},
			wantLearned: 2,
			wantLabels:  map[string]int{"Work": 1, "Promotion": 1},
		},
		{
			name:        "single label",
			args:        map[string]interface{}{"labels": "Work"},
			wantLearned: 1,
			wantLabels:  map[string]int{"Work": 1},
		},
		{
			name:        "label array",
			args:        map[string]interface{}{"labels": []interface{}{"Promotion", "Social"}, "maxPerLabel": float64(10)},
			wantLearned: 1,
			wantLabels:  map[string]int{"Promotion": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t)

			result, err := handleLearnLabels(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			require.False(t, result.IsError, resultText(t, result))

			var res vsm.LearnResult
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
			assert.Equal(t, tt.wantLearned, res.Learned)
			assert.Equal(t, tt.wantLabels, res.Labels)
		})
	}
}

func TestGmailTools_Errors(t *testing.T) {
	sc := newTestServerContext(t)
	ctx := context.Background()

	result, err := handleClassifyInbox(ctx, callRequest(map[string]interface{}{"account": "nobody"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "inboxsort auth --account nobody")

	result, err = handleLearnLabels(ctx, callRequest(map[string]interface{}{"labels": []interface{}{1.0}}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "labels[0]")
}

func TestRegisterGmailTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{name: "read-only", readOnly: true, want: []string{"gmail_classify_inbox"}},
		{name: "read-write", readOnly: false, want: []string{"gmail_classify_inbox", "gmail_learn_labels"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t)
			s := mcpserver.NewMCPServer("inboxsort-test", "test", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterGmailTools(s, sc, tt.readOnly))

			resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
			data, err := json.Marshal(resp)
			require.NoError(t, err)

			var decoded struct {
				Result struct {
					Tools []struct {
						Name string `json:"name"`
					} `json:"tools"`
				} `json:"result"`
			}
			require.NoError(t, json.Unmarshal(data, &decoded))

			var names []string
			for _, tool := range decoded.Result.Tools {
				names = append(names, tool.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}
