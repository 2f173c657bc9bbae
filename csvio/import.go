// Package csvio reads test cases from CSV and writes result and bug reports.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hairizuan-noorazman/testpilot/testcase"
)

var (
	// ErrNoHeader is returned when the input has no header row.
	ErrNoHeader = errors.New("CSV file is empty or has no header row")
)

// Normalized import column names.
const (
	ColumnTitle           = "title"
	ColumnDescription     = "description"
	ColumnSteps           = "steps(semicolonseparated)"
	ColumnExpectedResults = "expectedresults"
	ColumnType            = "type"
	ColumnModule          = "module"
)

const (
	// DefaultModule is used for rows with an empty module.
	DefaultModule = "Imported"

	// DefaultTitle is used for rows with an empty title.
	DefaultTitle = "Untitled"

	// DefaultStep is the single step given to rows with no steps.
	DefaultStep = "Steps not provided"

	stepSeparator = ";"
)

var requiredColumns = []string{
	ColumnTitle,
	ColumnDescription,
	ColumnSteps,
	ColumnExpectedResults,
	ColumnType,
	ColumnModule,
}

// MissingColumnsError names the mandatory columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "CSV is missing required columns: " + strings.Join(e.Columns, ", ")
}

// NormalizeHeader lowercases a column name and removes all whitespace.
func NormalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Import reads test cases from r. Every imported case is Pending and gets an
// ID allocated after existing and the rows imported before it. Blank rows are
// skipped.
func Import(r io.Reader, existing []testcase.TestCase) ([]testcase.TestCase, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := NormalizeHeader(name)
		if key == "" {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	running := append([]testcase.TestCase(nil), existing...)
	var imported []testcase.TestCase
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		field := func(col string) string {
			i := columns[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		module := field(ColumnModule)
		if module == "" {
			module = DefaultModule
		}
		title := field(ColumnTitle)
		if title == "" {
			title = DefaultTitle
		}
		steps := SplitSteps(field(ColumnSteps))
		if len(steps) == 0 {
			steps = []string{DefaultStep}
		}
		typ, ok := testcase.ParseType(field(ColumnType))
		if !ok {
			typ = testcase.TypeFunctional
		}

		tc := testcase.TestCase{
			ID:              testcase.NextID(module, running),
			Module:          module,
			Title:           title,
			Description:     field(ColumnDescription),
			Steps:           steps,
			ExpectedResults: field(ColumnExpectedResults),
			Type:            typ,
			Status:          testcase.StatusPending,
		}
		running = append(running, tc)
		imported = append(imported, tc)
	}
	return imported, nil
}

// SplitSteps splits a semicolon separated step list, trimming each step and
// dropping empty ones.
func SplitSteps(s string) []string {
	return testcase.CleanSteps(strings.Split(s, stepSeparator))
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
