package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^\\s*```(?:json|JSON)?\\s*")
	closingFence = regexp.MustCompile("\\s*```\\s*$")
)

// ParseError reports model output that could not be decoded.
// Raw holds the offending text for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripFences removes a leading and a trailing markdown code-fence marker.
// Fences inside the text are left alone.
func StripFences(response string) string {
	s := openingFence.ReplaceAllString(response, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseJSON extracts the JSON object from an LLM response and unmarshals it into T.
// Wrapping fences and any prose around the outermost braces are ignored.
// It performs no validation beyond decoding.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr := StripFences(response)
	if jsonStr == "" {
		return zero, &ParseError{Raw: response, Err: fmt.Errorf("empty response")}
	}

	start := strings.IndexByte(jsonStr, '{')
	end := strings.LastIndexByte(jsonStr, '}')
	if start == -1 || end < start {
		return zero, &ParseError{Raw: response, Err: fmt.Errorf("no JSON object found in response")}
	}
	jsonStr = jsonStr[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, &ParseError{Raw: response, Err: fmt.Errorf("failed to unmarshal JSON: %w", err)}
	}

	return result, nil
}
