package testutil

import (
	"fmt"

	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// NewTestCase returns a valid Pending functional test case.
func NewTestCase(id, module, title string) testcase.TestCase {
	return testcase.TestCase{
		ID:              id,
		Module:          module,
		Title:           title,
		Description:     title + " description",
		Steps:           []string{"Open the " + module + " page", "Perform: " + title},
		ExpectedResults: title + " succeeds",
		Type:            testcase.TypeFunctional,
		Status:          testcase.StatusPending,
	}
}

// NewTestCases returns n test cases for module numbered from 1.
func NewTestCases(module string, n int) []testcase.TestCase {
	prefix := testcase.Abbreviate(module)
	cases := make([]testcase.TestCase, n)
	for i := range cases {
		cases[i] = NewTestCase(fmt.Sprintf("%s_%03d", prefix, i+1), module, fmt.Sprintf("%s case %d", module, i+1))
	}
	return cases
}

// WithResult returns tc with the given status and actual results.
func WithResult(tc testcase.TestCase, status testcase.Status, actual string) testcase.TestCase {
	tc.Status = status
	tc.ActualResults = actual
	return tc
}
