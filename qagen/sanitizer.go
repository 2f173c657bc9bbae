package qagen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrNameTooLong is returned when a name exceeds the maximum length.
	ErrNameTooLong = errors.New("name exceeds maximum length")

	// ErrTextTooLong is returned when a free-text field exceeds the maximum length.
	ErrTextTooLong = errors.New("text exceeds maximum length")

	// ErrSuspiciousContent is returned when content contains suspicious patterns.
	ErrSuspiciousContent = errors.New("content contains suspicious patterns")
)

var (
	multipleSpaces  = regexp.MustCompile(`\s+`)
	inlineSpaces    = regexp.MustCompile(`[ \t]+`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	promptTagMarker = regexp.MustCompile(`(?i)</?\s*(application|module|test_case|existing_tests|methodology|instructions|url|description|name|steps|insights)\s*>`)

	suspiciousPhrases = []string{
		"ignore previous instructions",
		"ignore all previous",
		"disregard previous",
		"forget all previous",
		"new instructions:",
	}

	// roleMarker matches a line that opens with a chat role label.
	roleMarker = regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:`)
)

// ValidationConfig holds the limits applied to user text before it is
// embedded in a prompt.
type ValidationConfig struct {
	MaxNameLength        int
	MaxURLLength         int
	MaxDescriptionLength int
	MaxContextLength     int
	MaxStepsCount        int
	MaxCasesPerRequest   int
}

// DefaultValidationConfig returns the default validation configuration.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxNameLength:        255,
		MaxURLLength:         2048,
		MaxDescriptionLength: 5000,
		MaxContextLength:     20000,
		MaxStepsCount:        200,
		MaxCasesPerRequest:   25,
	}
}

// SanitizeName strips control characters and collapses whitespace.
func SanitizeName(name string) string {
	name = multipleSpaces.ReplaceAllString(strings.TrimSpace(name), " ")
	return strings.TrimSpace(removeControlCharacters(name, false))
}

// SanitizeText cleans multi-line user text: control and non-printable
// characters are removed, runs of blank lines are capped at one and each line
// is trimmed.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	text = removeControlCharacters(text, true)
	text = removeNonPrintable(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// checkName validates a name-like field.
func checkName(value, field string, cfg *ValidationConfig) error {
	if len(value) > cfg.MaxNameLength {
		return fmt.Errorf("%w: %s has %d characters (max %d)", ErrNameTooLong, field, len(value), cfg.MaxNameLength)
	}
	return checkSuspicious(value, field)
}

// checkText validates a free-text field against limit.
func checkText(value, field string, limit int) error {
	if len(value) > limit {
		return fmt.Errorf("%w: %s has %d characters (max %d)", ErrTextTooLong, field, len(value), limit)
	}
	return checkSuspicious(value, field)
}

// checkSuspicious looks for phrases and prompt section tags commonly used for
// prompt injection. It is a heuristic and may produce false positives.
func checkSuspicious(value, field string) error {
	lower := strings.ToLower(value)
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("%w: %s contains suspicious pattern '%s'", ErrSuspiciousContent, field, phrase)
		}
	}
	if role := roleMarker.FindString(value); role != "" {
		return fmt.Errorf("%w: %s contains role marker '%s'", ErrSuspiciousContent, field, strings.TrimSpace(role))
	}
	if tag := promptTagMarker.FindString(value); tag != "" {
		return fmt.Errorf("%w: %s contains prompt section tag '%s'", ErrSuspiciousContent, field, tag)
	}
	if hasExcessiveControlCharacters(value) {
		return fmt.Errorf("%w: %s contains excessive control characters", ErrSuspiciousContent, field)
	}
	return nil
}

// removeControlCharacters removes control characters from a string.
// If preserveFormatting is true, newlines, tabs and carriage returns are kept.
func removeControlCharacters(s string, preserveFormatting bool) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			if preserveFormatting && (r == '\n' || r == '\t' || r == '\r') {
				result.WriteRune(r)
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

func removeNonPrintable(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// hasExcessiveControlCharacters reports whether more than 5% of s (and at
// least 5 characters) are control characters other than common formatting.
func hasExcessiveControlCharacters(s string) bool {
	if len(s) == 0 {
		return false
	}

	controlCount := 0
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			controlCount++
		}
	}

	threshold := len(s) / 20
	if threshold < 5 {
		threshold = 5
	}
	return controlCount > threshold
}
