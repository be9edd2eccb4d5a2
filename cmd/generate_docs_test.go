package cmd

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"vsm_classify", "Classifier Tools"},
		{"gmail_classify_inbox", "Gmail Tools"},
		{"google_get_auth_url", "Google OAuth Tools"},
		{"other", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.name))
		})
	}
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("vsm_classify",
		mcp.WithDescription("Classify an email"),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
		mcp.WithString("body"),
	)

	md := generateToolMarkdown(tool)

	assert.Contains(t, md, "### vsm_classify")
	assert.Contains(t, md, "Classify an email")
	assert.Contains(t, md, "- `subject` (required): Email subject")
	assert.Contains(t, md, "- `body` (optional): string parameter")
	assert.Less(t, strings.Index(md, "`body`"), strings.Index(md, "`subject`"))
}

func TestToolsDocumentation(t *testing.T) {
	md, err := toolsDocumentation()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# MCP Tools Reference"))
	assert.Contains(t, md, "- [Classifier Tools](#classifier-tools)")
	assert.Contains(t, md, "- [Gmail Tools](#gmail-tools)")
	for _, name := range []string{"vsm_classify", "vsm_learn", "vsm_export_model", "gmail_learn_labels"} {
		assert.Contains(t, md, "### "+name)
	}
	assert.Less(t, strings.Index(md, "## Classifier Tools"), strings.Index(md, "## Gmail Tools"))
}
