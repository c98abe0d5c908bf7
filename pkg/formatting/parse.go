package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content holds no JSON value decodable as T.
var ErrParseFailed = errors.New("failed to parse response")

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse decodes content into T. Besides a bare JSON document it accepts a
// JSON string whose value is itself the document, and a document inside a
// markdown code fence.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
		var zero T
		result = zero
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 120))
}

func candidates(content string) []string {
	out := []string{content}

	var inner string
	if json.Unmarshal([]byte(content), &inner) == nil {
		out = append(out, strings.TrimSpace(inner))
	}

	if m := fencePattern.FindStringSubmatch(content); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
