package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr bool
	}{
		{name: "single string", input: "Work", want: []string{"Work"}},
		{name: "array of strings", input: []interface{}{"Work", "Spam"}, want: []string{"Work", "Spam"}},
		{name: "nil input", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "empty array", input: []interface{}{}, wantErr: true},
		{name: "array with non-string", input: []interface{}{"Work", 123}, wantErr: true},
		{name: "array with empty string", input: []interface{}{"Work", ""}, wantErr: true},
		{name: "invalid type", input: 123, wantErr: true},
		{name: "JSON string array", input: `["Work", "Social"]`, want: []string{"Work", "Social"}},
		{name: "JSON string empty array", input: `[]`, wantErr: true},
		{name: "invalid JSON string", input: `[invalid json`, want: []string{`[invalid json`}},
		{name: "string starting with bracket", input: `[promo] deals`, want: []string{`[promo] deals`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "labels")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "labels")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseObjectOrArray(t *testing.T) {
	obj := map[string]interface{}{"subject": "hi"}

	tests := []struct {
		name    string
		input   interface{}
		wantLen int
		wantErr bool
	}{
		{name: "single object", input: obj, wantLen: 1},
		{name: "array", input: []interface{}{obj, obj}, wantLen: 2},
		{name: "JSON string object", input: `{"subject":"hi"}`, wantLen: 1},
		{name: "JSON string array", input: `[{"subject":"a"},{"subject":"b"},{"subject":"c"}]`, wantLen: 3},
		{name: "nil", input: nil, wantErr: true},
		{name: "empty array", input: []interface{}{}, wantErr: true},
		{name: "plain string", input: "hello", wantErr: true},
		{name: "JSON string scalar", input: `"hello"`, wantErr: true},
		{name: "number", input: 4.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseObjectOrArray(tt.input, "emails")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Subject string `json:"subject"`
		Count   int    `json:"count"`
	}
	require.NoError(t, Decode(map[string]interface{}{"subject": "hi", "count": 2.0}, &out))
	assert.Equal(t, "hi", out.Subject)
	assert.Equal(t, 2, out.Count)

	assert.Error(t, Decode("not an object", &out))
}

func TestProcessBatch(t *testing.T) {
	items := []interface{}{"a", "fail", "c"}

	results := ProcessBatch(items, func(item interface{}) (any, error) {
		if item == "fail" {
			return nil, errors.New("boom")
		}
		return item, nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, NewSuccessResult("0", "a"), results[0])
	assert.Equal(t, NewErrorResult("1", errors.New("boom")), results[1])
	assert.Equal(t, StatusSuccess, results[2].Status)
	assert.Equal(t, "2", results[2].ID)
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		NewSuccessResult("0", map[string]string{"label": "Work"}),
		NewErrorResult("1", errors.New("item must be an object")),
	}

	br := Summarize(results)
	assert.Equal(t, 2, br.Total)
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, 1, br.Failed)

	out := FormatResults(results)
	assert.Contains(t, out, `"total": 2`)
	assert.Contains(t, out, `"label": "Work"`)
	assert.Contains(t, out, `"error": "item must be an object"`)
}
