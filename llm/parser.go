package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlock   = regexp.MustCompile("(?s)\x60\x60\x60\\w*[ \t]*\r?\n?(.*?)\x60\x60\x60")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractPayload returns the inner content of the first fenced code block in
// raw, or the trimmed text when there is none.
func ExtractPayload(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ParseJSON decodes model output into T. Output may be wrapped in prose or a
// code fence and may carry trailing commas. The boolean is false when nothing
// usable could be decoded.
func ParseJSON[T any](raw string) (T, bool) {
	var zero T

	payload := ExtractPayload(raw)
	if payload == "" {
		return zero, false
	}

	var v T
	if err := json.Unmarshal([]byte(payload), &v); err == nil {
		return v, true
	}

	repaired := trailingComma.ReplaceAllString(payload, "$1")
	var retry T
	if err := json.Unmarshal([]byte(repaired), &retry); err != nil {
		return zero, false
	}
	return retry, true
}
