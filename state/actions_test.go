package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

func sampleState() State {
	s := Default()
	s.SetupInfo = SetupInfo{AppURL: "https://shop.example.com", AppDescription: "Online shop"}
	s.DiscoveredModules = []appmodule.DiscoveredModule{
		{ID: "m1", Name: "Cart", Description: "Basket"},
		{ID: "m2", Name: "Login", Description: "Sign in", Insights: "check lockout"},
	}
	s.TestCases = []testcase.TestCase{
		{ID: "CART_001", Module: "Cart", Title: "Add item", Steps: []string{"add"}, Type: testcase.TypeFunctional, Status: testcase.StatusPassed, ActualResults: "ok"},
		{ID: "LOGI_001", Module: "Login", Title: "Valid login", Steps: []string{"login"}, Type: testcase.TypeFunctional, Status: testcase.StatusFailed, ActualResults: "500"},
	}
	s.CachedSuggestions = &DiscoveryCache{ForInputs: CacheKey(s.SetupInfo), Modules: []appmodule.SuggestedModule{{Name: "Cart"}}}
	return s
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	s := sampleState()
	_, err := Reduce(s, RecordResult{ID: "CART_001", Status: testcase.StatusFailed, ActualResults: "broken"})
	require.NoError(t, err)
	assert.Equal(t, testcase.StatusPassed, s.TestCases[0].Status)
	assert.Equal(t, "ok", s.TestCases[0].ActualResults)
}

func TestSetSetupInfo(t *testing.T) {
	tests := []struct {
		name      string
		info      SetupInfo
		wantCache bool
	}{
		{
			name:      "login details change keeps cache",
			info:      SetupInfo{AppURL: "https://shop.example.com", AppDescription: "Online shop", LoginDetails: "admin/admin"},
			wantCache: true,
		},
		{
			name:      "url change clears cache",
			info:      SetupInfo{AppURL: "https://other.example.com", AppDescription: "Online shop"},
			wantCache: false,
		},
		{
			name:      "description change clears cache",
			info:      SetupInfo{AppURL: "https://shop.example.com", AppDescription: "Bookshop"},
			wantCache: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(sampleState(), SetSetupInfo{Info: tt.info})
			require.NoError(t, err)
			assert.Equal(t, tt.info, got.SetupInfo)
			assert.Equal(t, tt.wantCache, got.CachedSuggestions != nil)
		})
	}
}

func TestCacheSuggestions(t *testing.T) {
	s := Default()
	setup := SetupInfo{AppURL: "https://a.example"}
	suggested := []appmodule.SuggestedModule{{Name: "Search", Description: "Find"}}

	got, err := Reduce(s, CacheSuggestions{ForInputs: CacheKey(setup), Modules: suggested})
	require.NoError(t, err)

	cached, ok := got.CachedFor(setup)
	assert.True(t, ok)
	assert.Equal(t, suggested, cached)

	_, ok = got.CachedFor(SetupInfo{AppURL: "https://b.example"})
	assert.False(t, ok)

	got, err = Reduce(got, ClearSuggestions{})
	require.NoError(t, err)
	assert.Nil(t, got.CachedSuggestions)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(SetupInfo{AppURL: "u", AppDescription: "d", LoginDetails: "x"})
	b := CacheKey(SetupInfo{AppURL: "u", AppDescription: "d", GoogleSheetLink: "y"})
	assert.Equal(t, a, b)
	assert.Equal(t, `{"appUrl":"u","appDescription":"d"}`, a)
	assert.NotEqual(t, a, CacheKey(SetupInfo{AppURL: "u"}))
}

func TestAddModules(t *testing.T) {
	got, err := Reduce(sampleState(), AddModules{Modules: []appmodule.DiscoveredModule{
		{Name: "Cart", Description: "duplicate"},
		{Name: "Search", Description: "Find things"},
		{Name: "Search", Description: "dup in batch"},
		{Name: ""},
	}})
	require.NoError(t, err)

	require.Len(t, got.DiscoveredModules, 3)
	assert.Equal(t, "Basket", got.DiscoveredModules[0].Description)
	assert.Equal(t, "Search", got.DiscoveredModules[2].Name)
	assert.Equal(t, "Find things", got.DiscoveredModules[2].Description)
	assert.NotEmpty(t, got.DiscoveredModules[2].ID)
}

func TestRemoveModule(t *testing.T) {
	got, err := Reduce(sampleState(), RemoveModule{Name: "Cart"})
	require.NoError(t, err)
	require.Len(t, got.DiscoveredModules, 1)
	assert.Equal(t, "Login", got.DiscoveredModules[0].Name)
	require.Len(t, got.TestCases, 1)
	assert.Equal(t, "LOGI_001", got.TestCases[0].ID)

	_, err = Reduce(sampleState(), RemoveModule{Name: "Nope"})
	assert.ErrorIs(t, err, appmodule.ErrModuleNotFound)
}

func TestModuleInsights(t *testing.T) {
	got, err := Reduce(sampleState(), SetModuleInsights{Name: "Cart", Insights: "watch totals"})
	require.NoError(t, err)
	m, _ := got.Module("Cart")
	assert.Equal(t, "watch totals", m.Insights)

	got, err = Reduce(got, SetModuleInsights{Name: "Login", Insights: "overwrite attempt"})
	require.NoError(t, err)
	m, _ = got.Module("Login")
	assert.Equal(t, "check lockout", m.Insights)

	got, err = Reduce(got, ClearModuleInsights{Name: "Login"})
	require.NoError(t, err)
	got, err = Reduce(got, SetModuleInsights{Name: "Login", Insights: "fresh"})
	require.NoError(t, err)
	m, _ = got.Module("Login")
	assert.Equal(t, "fresh", m.Insights)

	_, err = Reduce(got, SetModuleInsights{Name: "Ghost", Insights: "x"})
	assert.ErrorIs(t, err, appmodule.ErrModuleNotFound)
}

func TestAddTestCases_SkipsDuplicateIDs(t *testing.T) {
	got, err := Reduce(sampleState(), AddTestCases{Cases: []testcase.TestCase{
		{ID: "CART_001", Module: "Cart", Title: "dup"},
		{ID: "CART_002", Module: "Cart", Title: "Remove item", Steps: []string{"remove"}},
	}})
	require.NoError(t, err)
	require.Len(t, got.TestCases, 3)
	assert.Equal(t, "Add item", got.TestCases[0].Title)
	assert.Equal(t, "CART_002", got.TestCases[2].ID)
}

func TestRecordResult(t *testing.T) {
	got, err := Reduce(sampleState(), RecordResult{ID: "LOGI_001", Status: testcase.StatusPassed, ActualResults: "fixed"})
	require.NoError(t, err)
	tc, ok := got.TestCase("LOGI_001")
	require.True(t, ok)
	assert.Equal(t, testcase.StatusPassed, tc.Status)
	assert.Equal(t, "fixed", tc.ActualResults)

	_, err = Reduce(sampleState(), RecordResult{ID: "NOPE_001", Status: testcase.StatusPassed})
	assert.ErrorIs(t, err, testcase.ErrTestCaseNotFound)

	_, err = Reduce(sampleState(), RecordResult{ID: "LOGI_001", Status: "Skipped"})
	assert.ErrorIs(t, err, testcase.ErrInvalidStatus)
}

func TestDeleteTestCase(t *testing.T) {
	got, err := Reduce(sampleState(), DeleteTestCase{ID: "CART_001"})
	require.NoError(t, err)
	require.Len(t, got.TestCases, 1)

	_, err = Reduce(got, DeleteTestCase{ID: "CART_001"})
	assert.ErrorIs(t, err, testcase.ErrTestCaseNotFound)
}

func TestResetResultsAndReset(t *testing.T) {
	got, err := Reduce(sampleState(), ResetResults{})
	require.NoError(t, err)
	for _, tc := range got.TestCases {
		assert.Equal(t, testcase.StatusPending, tc.Status)
		assert.Empty(t, tc.ActualResults)
	}

	got, err = Reduce(got, Reset{})
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}
