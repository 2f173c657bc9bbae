package state

import (
	"encoding/json"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// StorageKey is the fixed key the state document is stored under.
const StorageKey = "testpilot-state"

// SetupInfo is the free-form description of the application under test.
type SetupInfo struct {
	AppURL          string `json:"appUrl"`
	AppDescription  string `json:"appDescription"`
	LoginDetails    string `json:"loginDetails"`
	GoogleSheetLink string `json:"googleSheetLink"`
}

// DiscoveryCache holds the last discovery result and the inputs it was made for.
type DiscoveryCache struct {
	ForInputs string                      `json:"forInputs"`
	Modules   []appmodule.SuggestedModule `json:"modules"`
}

// State is the whole persisted project.
type State struct {
	SetupInfo         SetupInfo                    `json:"setupInfo"`
	DiscoveredModules []appmodule.DiscoveredModule `json:"discoveredModules"`
	TestCases         []testcase.TestCase          `json:"testCases"`
	CachedSuggestions *DiscoveryCache              `json:"cachedSuggestions"`
}

// Default returns the empty project.
func Default() State {
	return State{
		DiscoveredModules: []appmodule.DiscoveredModule{},
		TestCases:         []testcase.TestCase{},
	}
}

// CacheKey is the canonical serialization of the inputs discovery depends on.
func CacheKey(setup SetupInfo) string {
	key := struct {
		AppURL         string `json:"appUrl"`
		AppDescription string `json:"appDescription"`
	}{setup.AppURL, setup.AppDescription}

	data, _ := json.Marshal(key)
	return string(data)
}

// CachedFor returns the cached suggestions when they were produced for setup.
func (s State) CachedFor(setup SetupInfo) ([]appmodule.SuggestedModule, bool) {
	if s.CachedSuggestions == nil || s.CachedSuggestions.ForInputs != CacheKey(setup) {
		return nil, false
	}
	return s.CachedSuggestions.Modules, true
}

// Module returns the module named name.
func (s State) Module(name string) (appmodule.DiscoveredModule, bool) {
	return appmodule.FindByName(s.DiscoveredModules, name)
}

// TestCase returns the test case with the given ID.
func (s State) TestCase(id string) (testcase.TestCase, bool) {
	i := testcase.Find(s.TestCases, id)
	if i < 0 {
		return testcase.TestCase{}, false
	}
	return s.TestCases[i], true
}

// CasesForModule returns the test cases belonging to the module named name.
func (s State) CasesForModule(name string) []testcase.TestCase {
	var out []testcase.TestCase
	for _, tc := range s.TestCases {
		if tc.Module == name {
			out = append(out, tc)
		}
	}
	return out
}

// clone returns a deep copy so callers can never alias the store's slices.
func (s State) clone() State {
	out := State{
		SetupInfo:         s.SetupInfo,
		DiscoveredModules: append([]appmodule.DiscoveredModule{}, s.DiscoveredModules...),
		TestCases:         make([]testcase.TestCase, len(s.TestCases)),
	}
	for i, tc := range s.TestCases {
		tc.Steps = append([]string{}, tc.Steps...)
		out.TestCases[i] = tc
	}
	if s.CachedSuggestions != nil {
		out.CachedSuggestions = &DiscoveryCache{
			ForInputs: s.CachedSuggestions.ForInputs,
			Modules:   append([]appmodule.SuggestedModule{}, s.CachedSuggestions.Modules...),
		}
	}
	return out
}
