package testcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_IsValid(t *testing.T) {
	for _, typ := range AllTypes() {
		assert.True(t, typ.IsValid(), typ)
	}
	assert.False(t, Type("Performance").IsValid())
	assert.False(t, Type("").IsValid())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input  string
		want   Type
		wantOK bool
	}{
		{"Functional", TypeFunctional, true},
		{"  ui/ux ", TypeUIUX, true},
		{"edgecase", TypeEdgeCase, true},
		{"Performance", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseType(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderTypes(t *testing.T) {
	got := OrderTypes([]Type{TypeSecurity, TypeFunctional, TypeSecurity, Type("Bogus")})
	assert.Equal(t, []Type{TypeFunctional, TypeSecurity}, got)
	assert.Empty(t, OrderTypes(nil))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
		final  bool
		defect bool
	}{
		{StatusPending, true, false, false},
		{StatusPassed, true, true, false},
		{StatusFailed, true, true, true},
		{StatusBlocked, true, true, true},
		{Status("Skipped"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
			assert.Equal(t, tt.final, tt.status.IsFinal())
			assert.Equal(t, tt.defect, tt.status.IsDefect())
		})
	}

	s, ok := ParseStatus("passed")
	assert.True(t, ok)
	assert.Equal(t, StatusPassed, s)
}

func TestTestCase_Validate(t *testing.T) {
	valid := func() TestCase {
		return TestCase{
			ID:     "CART_001",
			Module: "Cart",
			Title:  "Add item",
			Steps:  []string{"Open cart"},
			Type:   TypeFunctional,
			Status: StatusPending,
		}
	}

	tests := []struct {
		name    string
		mutate  func(tc *TestCase)
		wantErr error
	}{
		{"valid", func(tc *TestCase) {}, nil},
		{"missing id", func(tc *TestCase) { tc.ID = "" }, ErrInvalidID},
		{"blank title", func(tc *TestCase) { tc.Title = "  " }, ErrInvalidTitle},
		{"missing module", func(tc *TestCase) { tc.Module = "" }, ErrInvalidModule},
		{"no steps", func(tc *TestCase) { tc.Steps = nil }, ErrNoSteps},
		{"bad type", func(tc *TestCase) { tc.Type = "Load" }, ErrInvalidType},
		{"bad status", func(tc *TestCase) { tc.Status = "Done" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := valid()
			tt.mutate(&tc)
			err := tc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCleanSteps(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanSteps([]string{" a ", "", "  ", "b"}))
	assert.Empty(t, CleanSteps(nil))
}
