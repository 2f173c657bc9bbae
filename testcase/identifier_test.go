package testcase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbbreviate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty name", "", "GEN"},
		{"only punctuation", "!!! ---", "GEN"},
		{"punctuation stripped before splitting", "User Login & Registration!", "ULR"},
		{"initials truncated to four", "Order History Export Tool Suite", "OHET"},
		{"single word truncated", "Checkout", "CHEC"},
		{"single short word not padded", "Ui", "UI"},
		{"digits kept", "2 Factor Auth", "2FA"},
		{"lowercase initials uppercased", "search results page", "SRP"},
		{"hyphenated word collapses", "Sign-up", "SIGN"},
		{"surrounding whitespace", "   Cart   ", "CART"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Abbreviate(tt.input))
		})
	}
}

func TestAbbreviate_Properties(t *testing.T) {
	names := []string{"", "a", "Payments", "User Profile Settings", "x y z w v u", "ÄÖÜ straße", "###", "42"}
	for _, name := range names {
		tag := Abbreviate(name)
		assert.NotEmpty(t, tag, name)
		assert.LessOrEqual(t, len([]rune(tag)), 4, name)
		assert.Equal(t, strings.ToUpper(tag), tag, name)
		assert.Equal(t, tag, Abbreviate(name), "deterministic for %q", name)
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		module   string
		existing []TestCase
		expected string
	}{
		{
			name:     "first case for module",
			module:   "Checkout",
			existing: nil,
			expected: "CHEC_001",
		},
		{
			name:   "continues after the maximum",
			module: "User Login & Registration!",
			existing: []TestCase{
				{ID: "ULR_004", Module: "User Login & Registration!"},
				{ID: "ULR_002", Module: "User Login & Registration!"},
			},
			expected: "ULR_005",
		},
		{
			name:   "gaps are not filled",
			module: "Cart",
			existing: []TestCase{
				{ID: "CART_001", Module: "Cart"},
				{ID: "CART_007", Module: "Cart"},
			},
			expected: "CART_008",
		},
		{
			name:   "grows past three digits",
			module: "Cart",
			existing: []TestCase{
				{ID: "CART_999", Module: "Cart"},
			},
			expected: "CART_1000",
		},
		{
			name:   "other modules sharing the prefix are ignored",
			module: "User Login Review",
			existing: []TestCase{
				{ID: "ULR_010", Module: "User Login & Registration!"},
			},
			expected: "ULR_001",
		},
		{
			name:   "ids held by another module are skipped",
			module: "Customer Care",
			existing: []TestCase{
				{ID: "CC_001", Module: "Cart Checkout"},
				{ID: "CC_002", Module: "Cart Checkout"},
				{ID: "CC_001_OLD", Module: "Customer Care"},
			},
			expected: "CC_003",
		},
		{
			name:   "ids without the prefix are ignored",
			module: "Cart",
			existing: []TestCase{
				{ID: "IMPORTED_050", Module: "Cart"},
				{ID: "CART_002", Module: "Cart"},
			},
			expected: "CART_003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextID(tt.module, tt.existing))
		})
	}
}

func TestAllocateIDs(t *testing.T) {
	existing := []TestCase{{ID: "SEAR_002", Module: "Search"}}

	assert.Equal(t, []string{"SEAR_003", "SEAR_004", "SEAR_005"}, AllocateIDs("Search", existing, 3))
	assert.Nil(t, AllocateIDs("Search", existing, 0))

	shared := []TestCase{
		{ID: "CC_001", Module: "Cart Checkout"},
		{ID: "CC_003", Module: "Cart Checkout"},
	}
	assert.Equal(t, []string{"CC_002", "CC_004", "CC_005"}, AllocateIDs("Customer Care", shared, 3))
}
