package issuetracker

import (
	"fmt"
	"strings"

	"github.com/hairizuan-noorazman/testpilot/csvio"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// DefaultLabels are attached to every filed bug.
var DefaultLabels = []string{"bug", "testpilot"}

// BugIssue renders a Failed or Blocked test case as an issue. The content
// mirrors a bug report row.
func BugIssue(tc testcase.TestCase) IssueInput {
	var b strings.Builder
	fmt.Fprintf(&b, "Bug ID: %s\n", csvio.BugID(tc.ID))
	fmt.Fprintf(&b, "Module: %s\n", tc.Module)
	fmt.Fprintf(&b, "Type: %s\n", tc.Type)
	fmt.Fprintf(&b, "Status: %s\n", tc.Status)
	fmt.Fprintf(&b, "Severity: %s\n", csvio.BugSeverity)

	section(&b, "Steps to Reproduce", csvio.NumberedSteps(tc.Steps))
	section(&b, "Expected Behavior", tc.ExpectedResults)
	section(&b, "Actual Behavior", tc.ActualResults)

	return IssueInput{
		Title:  fmt.Sprintf("[%s] %s", csvio.BugID(tc.ID), tc.Title),
		Body:   strings.TrimRight(b.String(), "\n"),
		Labels: append([]string(nil), DefaultLabels...),
	}
}

func section(b *strings.Builder, heading, text string) {
	if strings.TrimSpace(text) == "" {
		text = "(none)"
	}
	fmt.Fprintf(b, "\n%s\n%s\n", heading, text)
}
