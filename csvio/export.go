package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// BugSeverity is the severity given to every bug report row.
const BugSeverity = "Medium"

// ResultsHeader is the header row of the full results export.
var ResultsHeader = []string{
	"ID",
	"Module",
	"Title",
	"Description",
	"Steps (Semicolon Separated)",
	"Expected Results",
	"Type",
	"Status",
	"Actual Results",
}

// BugReportHeader is the header row of the bug report export.
var BugReportHeader = []string{
	"Bug ID",
	"Severity",
	"Title",
	"Module",
	"Steps to Reproduce",
	"Expected Behavior",
	"Actual Behavior",
	"Status",
}

// WriteResults writes every case with its current status and actual results.
func WriteResults(w io.Writer, cases []testcase.TestCase) error {
	rows := make([][]string, 0, len(cases)+1)
	rows = append(rows, ResultsHeader)
	for _, tc := range cases {
		rows = append(rows, []string{
			tc.ID,
			tc.Module,
			tc.Title,
			tc.Description,
			JoinSteps(tc.Steps),
			tc.ExpectedResults,
			string(tc.Type),
			string(tc.Status),
			tc.ActualResults,
		})
	}
	return writeAll(w, rows)
}

// WriteBugReport writes one row per Failed or Blocked case and returns the
// number of bugs written.
func WriteBugReport(w io.Writer, cases []testcase.TestCase) (int, error) {
	defects := Defects(cases)
	rows := make([][]string, 0, len(defects)+1)
	rows = append(rows, BugReportHeader)
	for _, tc := range defects {
		rows = append(rows, []string{
			BugID(tc.ID),
			BugSeverity,
			tc.Title,
			tc.Module,
			NumberedSteps(tc.Steps),
			tc.ExpectedResults,
			tc.ActualResults,
			string(tc.Status),
		})
	}
	return len(defects), writeAll(w, rows)
}

// Defects returns the Failed and Blocked cases in their original order.
func Defects(cases []testcase.TestCase) []testcase.TestCase {
	var out []testcase.TestCase
	for _, tc := range cases {
		if tc.Status.IsDefect() {
			out = append(out, tc)
		}
	}
	return out
}

// BugID derives the bug identifier for a test case.
func BugID(caseID string) string {
	return "BUG-" + caseID
}

// JoinSteps is the inverse of SplitSteps for steps that contain no semicolon.
func JoinSteps(steps []string) string {
	return strings.Join(steps, stepSeparator+" ")
}

// NumberedSteps renders steps one per line as "1. step".
func NumberedSteps(steps []string) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
