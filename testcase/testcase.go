package testcase

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidID is returned when a test case has no ID.
	ErrInvalidID = errors.New("test case id is required")

	// ErrInvalidTitle is returned when a test case has no title.
	ErrInvalidTitle = errors.New("test case title is required")

	// ErrInvalidModule is returned when a test case is not attached to a module.
	ErrInvalidModule = errors.New("test case module is required")

	// ErrNoSteps is returned when a test case has no steps.
	ErrNoSteps = errors.New("test case must have at least one step")

	// ErrInvalidType is returned when the type is not one of the known methodologies.
	ErrInvalidType = errors.New("invalid test case type")

	// ErrInvalidStatus is returned when the status is not one of the known statuses.
	ErrInvalidStatus = errors.New("invalid test case status")

	// ErrTestCaseNotFound is returned when a test case ID does not exist.
	ErrTestCaseNotFound = errors.New("test case not found")
)

// Type is the QA methodology a test case exercises.
type Type string

const (
	TypeFunctional                Type = "Functional"
	TypeUIUX                      Type = "UI/UX"
	TypeNegative                  Type = "Negative"
	TypeEdgeCase                  Type = "EdgeCase"
	TypeSecurity                  Type = "Security"
	TypeAccessibility             Type = "Accessibility"
	TypeResponsiveness            Type = "Responsiveness"
	TypeCrossBrowserCompatibility Type = "CrossBrowserCompatibility"
)

// allTypes is the fixed enumeration order. Prompt composition and type
// coercion both depend on it.
var allTypes = []Type{
	TypeFunctional,
	TypeUIUX,
	TypeNegative,
	TypeEdgeCase,
	TypeSecurity,
	TypeAccessibility,
	TypeResponsiveness,
	TypeCrossBrowserCompatibility,
}

// AllTypes returns every methodology in enumeration order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// IsValid checks if the type is one of the known methodologies.
func (t Type) IsValid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType matches s against the known methodologies, ignoring case and
// surrounding whitespace.
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	for _, known := range allTypes {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// OrderTypes returns the valid members of selected in enumeration order,
// without duplicates.
func OrderTypes(selected []Type) []Type {
	want := make(map[Type]bool, len(selected))
	for _, t := range selected {
		want[t] = true
	}
	var out []Type
	for _, t := range allTypes {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}

// Status is the execution state of a test case.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPassed  Status = "Passed"
	StatusFailed  Status = "Failed"
	StatusBlocked Status = "Blocked"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPassed, StatusFailed, StatusBlocked:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the status is an execution outcome.
func (s Status) IsFinal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusBlocked
}

// IsDefect reports whether the status belongs in a bug report.
func (s Status) IsDefect() bool {
	return s == StatusFailed || s == StatusBlocked
}

// ParseStatus matches s against the known statuses, ignoring case.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, known := range []Status{StatusPending, StatusPassed, StatusFailed, StatusBlocked} {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// TestCase is a titled, stepped procedure with an expected outcome.
type TestCase struct {
	ID              string   `json:"id"`
	Module          string   `json:"module"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Steps           []string `json:"steps"`
	ExpectedResults string   `json:"expectedResults"`
	Type            Type     `json:"type"`
	Status          Status   `json:"status"`
	ActualResults   string   `json:"actualResults,omitempty"`
}

// Validate checks if the test case has valid required fields.
func (tc *TestCase) Validate() error {
	if tc.ID == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(tc.Title) == "" {
		return ErrInvalidTitle
	}
	if strings.TrimSpace(tc.Module) == "" {
		return ErrInvalidModule
	}
	if len(tc.Steps) == 0 {
		return ErrNoSteps
	}
	if !tc.Type.IsValid() {
		return ErrInvalidType
	}
	if !tc.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Find returns the index of the case with the given ID, or -1.
func Find(cases []TestCase, id string) int {
	for i := range cases {
		if cases[i].ID == id {
			return i
		}
	}
	return -1
}

// CleanSteps trims every step and drops the empty ones.
func CleanSteps(steps []string) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
