package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, input string) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevIn := stdout, stderr, stdin
	stdout, stderr, stdin = &out, &errOut, strings.NewReader(input)
	t.Cleanup(func() {
		stdout, stderr, stdin = prevOut, prevErr, prevIn
	})
	return &out, &errOut
}

func TestPrintTable(t *testing.T) {
	out, _ := captureOutput(t, "")

	printTable([]string{"ID", "TITLE"}, [][]string{
		{"CART_001", "Add item"},
		{"LOGI_010", "Reset password"},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"ID        TITLE",
		"CART_001  Add item",
		"LOGI_010  Reset password",
	}, lines)
}

func TestPrintTable_Empty(t *testing.T) {
	out, _ := captureOutput(t, "")

	printTable([]string{"ID"}, nil)
	assert.Equal(t, "(none)\n", out.String())
}

func TestPrintJSON(t *testing.T) {
	out, _ := captureOutput(t, "")

	printJSON(map[string]int{"total": 3})
	assert.Equal(t, "{\n  \"total\": 3\n}\n", out.String())
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		skip  bool
		want  bool
	}{
		{name: "skip", input: "", skip: true, want: true},
		{name: "yes", input: "yes\n", want: true},
		{name: "y with spaces", input: "  Y \n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
		{name: "eof", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := captureOutput(t, tt.input)

			got := confirmAction("Delete?", tt.skip)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, out.String())
			if !tt.skip {
				assert.Contains(t, errOut.String(), "Delete? [y/N]")
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\tc", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
