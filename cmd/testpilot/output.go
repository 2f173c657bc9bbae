package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Command output goes to stdout and prompts read stdin; tests swap both.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

func printJSON(v interface{}) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: failed to marshal JSON: %v\n", err)
	}
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "(none)")
		return
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func printMessage(msg string) {
	fmt.Fprintln(stdout, msg)
}

// printWarning never mixes into JSON or CSV written to stdout.
func printWarning(msg string) {
	fmt.Fprintln(stderr, msg)
}

// confirmAction asks on stderr so piped output stays clean.
func confirmAction(prompt string, skipConfirm bool) bool {
	if skipConfirm {
		return true
	}

	fmt.Fprintf(stderr, "%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// truncate collapses whitespace and shortens s to max bytes for table cells.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
