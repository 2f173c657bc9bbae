package testcase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// fallbackAbbreviation is used when a module name has no usable characters.
const fallbackAbbreviation = "GEN"

const maxAbbreviationLength = 4

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Abbreviate derives the short uppercase tag used as a test case ID prefix.
// Everything except letters, digits and spaces is dropped. Several words give
// their initials, a single word gives its first four characters.
func Abbreviate(moduleName string) string {
	var kept strings.Builder
	for _, r := range moduleName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			kept.WriteRune(r)
		}
	}

	words := strings.Fields(kept.String())
	if len(words) == 0 {
		return fallbackAbbreviation
	}

	var tag []rune
	if len(words) > 1 {
		for _, w := range words {
			tag = append(tag, []rune(w)[0])
		}
	} else {
		tag = []rune(words[0])
	}
	if len(tag) > maxAbbreviationLength {
		tag = tag[:maxAbbreviationLength]
	}
	return strings.ToUpper(string(tag))
}

// NextID returns the next free ID for moduleName. Only cases whose Module
// matches exactly are considered; among those, IDs carrying the module's
// prefix contribute their numeric suffix. The result is max+1, zero padded to
// three digits and allowed to grow beyond them. An ID already held by another
// module with the same abbreviation is skipped.
func NextID(moduleName string, existing []TestCase) string {
	return AllocateIDs(moduleName, existing, 1)[0]
}

// AllocateIDs returns n IDs for moduleName in increasing order, starting
// after the current maximum and skipping IDs already taken.
func AllocateIDs(moduleName string, existing []TestCase, n int) []string {
	if n <= 0 {
		return nil
	}
	prefix := Abbreviate(moduleName)
	next := maxSequence(moduleName, prefix, existing) + 1

	taken := make(map[string]bool, len(existing))
	for _, tc := range existing {
		taken[tc.ID] = true
	}

	ids := make([]string, n)
	for i := range ids {
		for taken[formatID(prefix, next)] {
			next++
		}
		ids[i] = formatID(prefix, next)
		next++
	}
	return ids
}

func maxSequence(moduleName, prefix string, existing []TestCase) int {
	highest := 0
	for _, tc := range existing {
		if tc.Module != moduleName || !strings.HasPrefix(tc.ID, prefix+"_") {
			continue
		}
		m := trailingDigits.FindStringSubmatch(tc.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}

func formatID(prefix string, seq int) string {
	return fmt.Sprintf("%s_%03d", prefix, seq)
}
