package llm

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// ExtractJSON recovers a structured value (object or array) from free-form
// model output. Strategies, first success wins:
//
//  1. parse the entire text as one value,
//  2. parse the outermost {...} or [...] span found in the text,
//  3. parse the contents of a ```json fenced block.
//
// Returns false when no strategy yields valid JSON; callers substitute their
// own fallback. Extraction failure never becomes an error here.
func ExtractJSON(text string, logger *zap.Logger) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)

	if raw, ok := parseValue(trimmed); ok {
		return raw, true
	}

	if span := outermostSpan(trimmed); span != "" {
		if raw, ok := parseValue(span); ok {
			return raw, true
		}
	}

	if block := fencedBlock(trimmed); block != "" {
		if raw, ok := parseValue(block); ok {
			return raw, true
		}
	}

	logger.Warn("could not extract JSON from model output",
		zap.String("content_preview", preview(trimmed, 200)),
	)
	return nil, false
}

func parseValue(s string) (json.RawMessage, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var probe any
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

// outermostSpan returns the greedy outermost object-or-array looking span,
// starting at the first brace or bracket and ending at the last matching one.
func outermostSpan(s string) string {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start, closer := objStart, byte('}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, ']'
	}
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// fencedBlock returns the inside of the first ```json code fence, if any.
func fencedBlock(s string) string {
	const marker = "```json"
	start := strings.Index(s, marker)
	if start == -1 {
		return ""
	}
	rest := s[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
