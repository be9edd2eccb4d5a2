package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxsort/internal/vsm"
)

func TestDecodeEmails(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []vsm.Email
		wantErr bool
	}{
		{
			name:  "single object",
			input: `{"subject":"Hi","sender":"a@b.com","body":"hello"}`,
			want:  []vsm.Email{{Subject: "Hi", Sender: "a@b.com", Body: "hello"}},
		},
		{
			name:  "array with text alias and label",
			input: ` [{"subject":"Sale","text":"50% off","label":"Promotion"},{"body":"b"}]`,
			want: []vsm.Email{
				{Subject: "Sale", Body: "50% off", Label: "Promotion"},
				{Body: "b"},
			},
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  []vsm.Email{},
		},
		{
			name:    "empty input",
			input:   "  \n",
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   `{"subject":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEmails([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadEmailsFile(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "emails.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"subject":"One"},{"subject":"Two"}]`), 0o600))

		emails, err := readEmailsFile(nil, path)
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("stdin", func(t *testing.T) {
		emails, err := readEmailsFile(strings.NewReader(`{"subject":"From stdin"}`), "-")
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "From stdin", emails[0].Subject)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readEmailsFile(nil, filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestClassifyCommand(t *testing.T) {
	useDiscardLogger(t)

	modelPath := filepath.Join(t.TempDir(), "model.json")
	_, _, err := runTrain(t.Context(), writeCorpus(t, testCorpus().Records), modelPath)
	require.NoError(t, err)

	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = testConfig(t)
	cfg.ModelPath = modelPath

	tests := []struct {
		name      string
		opts      classifyOptions
		wantLabel string
		wantErr   bool
	}{
		{
			name:      "work email",
			opts:      classifyOptions{subject: "Roadmap meeting", sender: "lead@corp.com", body: "review meeting agenda"},
			wantLabel: "Work",
		},
		{
			name:      "promotion email",
			opts:      classifyOptions{subject: "Sale", sender: "deals@shop.com", body: "discount coupon sale"},
			wantLabel: "Promotion",
		},
		{
			name:    "nothing to classify",
			opts:    classifyOptions{sender: "lead@corp.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newClassifyCmd()
			var out strings.Builder
			cmd.SetOut(&out)
			cmd.SetContext(t.Context())

			err := runClassify(cmd, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), `"label": "`+tt.wantLabel+`"`)
		})
	}
}
