package common

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// StripCodeFences removes markdown code fence markers the model sometimes wraps JSON in.
func StripCodeFences(response string) string {
	s := strings.ReplaceAll(response, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
// The value is cut at the first '[' when T is a slice or array, otherwise at the first '{'.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := StripCodeFences(response)

	opener, closer := byte('{'), byte('}')
	if t := reflect.TypeOf(zero); t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		opener, closer = '[', ']'
	}

	start := strings.IndexByte(jsonStr, opener)
	if start == -1 {
		return zero, fmt.Errorf("no JSON value found in response (missing '%c')", opener)
	}
	end := strings.LastIndexByte(jsonStr, closer)
	if end < start {
		return zero, fmt.Errorf("unterminated JSON value in response (missing '%c')", closer)
	}
	jsonStr = jsonStr[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}
