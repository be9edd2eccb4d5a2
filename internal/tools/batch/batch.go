package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single item in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be either a single string or an array of strings
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var result []string

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		// Some clients send arrays as a JSON-encoded string.
		var arr []interface{}
		if strings.HasPrefix(v, "[") && json.Unmarshal([]byte(v), &arr) == nil {
			return ParseStringOrArray(arr, paramName)
		}
		result = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	return result, nil
}

// ParseObjectOrArray parses a parameter that can be either a single object
// or an array of objects. Items are returned as decoded; callers validate
// them one by one so a bad item does not fail the whole batch.
func ParseObjectOrArray(param interface{}, paramName string) ([]interface{}, error) {
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", paramName)
	case string:
		var decoded interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("%s must be an object or array of objects", paramName)
		}
		if _, ok := decoded.(string); ok {
			return nil, fmt.Errorf("%s must be an object or array of objects", paramName)
		}
		return ParseObjectOrArray(decoded, paramName)
	case map[string]interface{}:
		return []interface{}{v}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be an object or array of objects", paramName)
	}
}

// Decode converts a decoded JSON item into out by re-encoding it.
func Decode(item interface{}, out any) error {
	if _, ok := item.(map[string]interface{}); !ok {
		return fmt.Errorf("item must be an object, got %T", item)
	}
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Summarize aggregates results into a BatchResult.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}

// ProcessBatch executes fn on each item and collects results. Items are
// identified by their index.
func ProcessBatch(items []interface{}, fn func(item interface{}) (any, error)) []Result {
	results := make([]Result, 0, len(items))

	for i, item := range items {
		id := fmt.Sprintf("%d", i)
		res, err := fn(item)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id string, value any) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: value,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
