package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// Action is a state transition. Actions are applied by Reduce.
type Action interface {
	apply(s State) (State, error)
}

// Reduce applies a to a copy of s and returns the new state. s is never modified.
func Reduce(s State, a Action) (State, error) {
	return a.apply(s.clone())
}

// SetSetupInfo replaces the setup info. Changing the app URL or description
// invalidates the discovery cache.
type SetSetupInfo struct {
	Info SetupInfo
}

func (a SetSetupInfo) apply(s State) (State, error) {
	if CacheKey(a.Info) != CacheKey(s.SetupInfo) {
		s.CachedSuggestions = nil
	}
	s.SetupInfo = a.Info
	return s, nil
}

// CacheSuggestions stores a discovery result for the given inputs key.
type CacheSuggestions struct {
	ForInputs string
	Modules   []appmodule.SuggestedModule
}

func (a CacheSuggestions) apply(s State) (State, error) {
	s.CachedSuggestions = &DiscoveryCache{
		ForInputs: a.ForInputs,
		Modules:   append([]appmodule.SuggestedModule{}, a.Modules...),
	}
	return s, nil
}

// ClearSuggestions drops the discovery cache.
type ClearSuggestions struct{}

func (ClearSuggestions) apply(s State) (State, error) {
	s.CachedSuggestions = nil
	return s, nil
}

// AddModules appends modules. A module whose name is already present is
// skipped silently.
type AddModules struct {
	Modules []appmodule.DiscoveredModule
}

func (a AddModules) apply(s State) (State, error) {
	for _, m := range a.Modules {
		if m.Name == "" {
			continue
		}
		if _, exists := appmodule.FindByName(s.DiscoveredModules, m.Name); exists {
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		s.DiscoveredModules = append(s.DiscoveredModules, m)
	}
	return s, nil
}

// RemoveModule deletes a module and every test case belonging to it.
type RemoveModule struct {
	Name string
}

func (a RemoveModule) apply(s State) (State, error) {
	kept := s.DiscoveredModules[:0]
	found := false
	for _, m := range s.DiscoveredModules {
		if m.Name == a.Name {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return s, fmt.Errorf("%w: %s", appmodule.ErrModuleNotFound, a.Name)
	}
	s.DiscoveredModules = kept

	cases := s.TestCases[:0]
	for _, tc := range s.TestCases {
		if tc.Module != a.Name {
			cases = append(cases, tc)
		}
	}
	s.TestCases = cases
	return s, nil
}

// SetModuleInsights stores analysis text on a module that has none yet.
// Existing insights are left alone until cleared.
type SetModuleInsights struct {
	Name     string
	Insights string
}

func (a SetModuleInsights) apply(s State) (State, error) {
	for i := range s.DiscoveredModules {
		if s.DiscoveredModules[i].Name != a.Name {
			continue
		}
		if s.DiscoveredModules[i].Insights == "" {
			s.DiscoveredModules[i].Insights = a.Insights
		}
		return s, nil
	}
	return s, fmt.Errorf("%w: %s", appmodule.ErrModuleNotFound, a.Name)
}

// ClearModuleInsights removes a module's analysis text.
type ClearModuleInsights struct {
	Name string
}

func (a ClearModuleInsights) apply(s State) (State, error) {
	for i := range s.DiscoveredModules {
		if s.DiscoveredModules[i].Name == a.Name {
			s.DiscoveredModules[i].Insights = ""
			return s, nil
		}
	}
	return s, fmt.Errorf("%w: %s", appmodule.ErrModuleNotFound, a.Name)
}

// AddTestCases appends test cases, skipping any whose ID is already taken.
type AddTestCases struct {
	Cases []testcase.TestCase
}

func (a AddTestCases) apply(s State) (State, error) {
	for _, tc := range a.Cases {
		if testcase.Find(s.TestCases, tc.ID) >= 0 {
			continue
		}
		tc.Steps = append([]string{}, tc.Steps...)
		s.TestCases = append(s.TestCases, tc)
	}
	return s, nil
}

// RecordResult stores the outcome of executing a test case.
type RecordResult struct {
	ID            string
	Status        testcase.Status
	ActualResults string
}

func (a RecordResult) apply(s State) (State, error) {
	if !a.Status.IsValid() {
		return s, fmt.Errorf("%w: %s", testcase.ErrInvalidStatus, a.Status)
	}
	i := testcase.Find(s.TestCases, a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", testcase.ErrTestCaseNotFound, a.ID)
	}
	s.TestCases[i].Status = a.Status
	s.TestCases[i].ActualResults = a.ActualResults
	return s, nil
}

// DeleteTestCase removes one test case.
type DeleteTestCase struct {
	ID string
}

func (a DeleteTestCase) apply(s State) (State, error) {
	i := testcase.Find(s.TestCases, a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", testcase.ErrTestCaseNotFound, a.ID)
	}
	s.TestCases = append(s.TestCases[:i], s.TestCases[i+1:]...)
	return s, nil
}

// ResetResults puts every test case back to Pending and clears actual results.
type ResetResults struct{}

func (ResetResults) apply(s State) (State, error) {
	for i := range s.TestCases {
		s.TestCases[i].Status = testcase.StatusPending
		s.TestCases[i].ActualResults = ""
	}
	return s, nil
}

// Reset discards the whole project.
type Reset struct{}

func (Reset) apply(State) (State, error) {
	return Default(), nil
}
