// Package workspace ties the state store, the AI service, export storage and
// the issue tracker together into the operations the CLI exposes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/issuetracker"
	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/qagen"
	"github.com/hairizuan-noorazman/testpilot/state"
	"github.com/hairizuan-noorazman/testpilot/storage"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

var (
	// ErrNoModules is returned when generation has no module to work on.
	ErrNoModules = errors.New("no modules to generate test cases for")

	// ErrSuggestionNotFound is returned when accepting a name that is not in
	// the current discovery result.
	ErrSuggestionNotFound = errors.New("module is not among the current suggestions")

	// ErrNoSuggestions is returned when accepting before discovery has run for
	// the current setup.
	ErrNoSuggestions = errors.New("no module suggestions for the current setup")
)

// AI is the set of model-backed requests the workspace makes. *qagen.Service
// implements it.
type AI interface {
	qagen.CaseGenerator
	DiscoverModules(ctx context.Context, setup state.SetupInfo, forceRefresh bool) ([]appmodule.SuggestedModule, error)
	AnalyzeModule(ctx context.Context, name, description, appDescription string) (string, error)
	PredictExecution(ctx context.Context, tc testcase.TestCase, appDescription string) (qagen.Prediction, error)
}

// Workspace runs user operations against one project.
type Workspace struct {
	store   *state.Store
	ai      AI
	exports storage.BlobStorage
	tracker issuetracker.Client
	logger  logger.Logger
	now     func() time.Time
}

// New creates a workspace over a loaded store.
func New(store *state.Store, ai AI, log logger.Logger) *Workspace {
	if log == nil {
		log = logger.Nop()
	}
	return &Workspace{
		store:  store,
		ai:     ai,
		logger: log,
		now:    time.Now,
	}
}

// SetExportStorage sets where Publish writes exports.
func (w *Workspace) SetExportStorage(bs storage.BlobStorage) {
	w.exports = bs
}

// SetIssueTracker sets the tracker FileBugs files issues in.
func (w *Workspace) SetIssueTracker(c issuetracker.Client) {
	w.tracker = c
}

// State returns a copy of the current project state.
func (w *Workspace) State() state.State {
	return w.store.GetState()
}

// SetSetup replaces the setup info.
func (w *Workspace) SetSetup(ctx context.Context, info state.SetupInfo) error {
	_, err := w.store.Dispatch(ctx, state.SetSetupInfo{Info: info})
	return err
}

// Discover returns module suggestions for the current setup. A cached result
// for the same app URL and description is reused unless force is set. The
// second return value reports whether the cache was used.
func (w *Workspace) Discover(ctx context.Context, force bool) ([]appmodule.SuggestedModule, bool, error) {
	s := w.store.GetState()
	if !force {
		if cached, ok := s.CachedFor(s.SetupInfo); ok {
			w.logger.Debug(ctx, "Using cached module suggestions", map[string]interface{}{
				"count": len(cached),
			})
			return cached, true, nil
		}
	} else if s.CachedSuggestions != nil {
		if _, err := w.store.Dispatch(ctx, state.ClearSuggestions{}); err != nil {
			return nil, false, err
		}
	}

	modules, err := w.ai.DiscoverModules(ctx, s.SetupInfo, force)
	if err != nil {
		return nil, false, &AIError{Op: "discover modules", Err: err}
	}

	if _, err := w.store.Dispatch(ctx, state.CacheSuggestions{
		ForInputs: state.CacheKey(s.SetupInfo),
		Modules:   modules,
	}); err != nil {
		return nil, false, err
	}
	return modules, false, nil
}

// AcceptSuggestions adds the named suggestions as modules, or every
// suggestion when names is empty. It returns the modules actually added;
// names already present are skipped.
func (w *Workspace) AcceptSuggestions(ctx context.Context, names []string) ([]appmodule.DiscoveredModule, error) {
	s := w.store.GetState()
	suggestions, ok := s.CachedFor(s.SetupInfo)
	if !ok {
		return nil, ErrNoSuggestions
	}

	selected := suggestions
	if len(names) > 0 {
		selected = make([]appmodule.SuggestedModule, 0, len(names))
		for _, name := range names {
			found := false
			for _, sug := range suggestions {
				if sug.Name == name {
					selected = append(selected, sug)
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: %s", ErrSuggestionNotFound, name)
			}
		}
	}

	modules := make([]appmodule.DiscoveredModule, 0, len(selected))
	for _, sug := range selected {
		m, err := appmodule.FromSuggestion(sug)
		if err != nil {
			continue
		}
		modules = append(modules, m)
	}
	return w.addModules(ctx, s, modules)
}

// AddModule adds a module by hand. Adding a name that already exists returns
// the existing module.
func (w *Workspace) AddModule(ctx context.Context, name, description string) (appmodule.DiscoveredModule, error) {
	m, err := appmodule.New(qagen.SanitizeName(name), qagen.SanitizeText(description))
	if err != nil {
		return appmodule.DiscoveredModule{}, err
	}

	next, err := w.store.Dispatch(ctx, state.AddModules{Modules: []appmodule.DiscoveredModule{m}})
	if err != nil {
		return appmodule.DiscoveredModule{}, err
	}
	existing, _ := next.Module(m.Name)
	return existing, nil
}

func (w *Workspace) addModules(ctx context.Context, before state.State, modules []appmodule.DiscoveredModule) ([]appmodule.DiscoveredModule, error) {
	if _, err := w.store.Dispatch(ctx, state.AddModules{Modules: modules}); err != nil {
		return nil, err
	}

	var added []appmodule.DiscoveredModule
	seen := make(map[string]bool)
	for _, m := range modules {
		if _, exists := before.Module(m.Name); exists || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		added = append(added, m)
	}
	w.logger.Info(ctx, "Modules added", map[string]interface{}{
		"count": len(added),
	})
	return added, nil
}

// RemoveModule deletes a module together with its test cases.
func (w *Workspace) RemoveModule(ctx context.Context, name string) error {
	_, err := w.store.Dispatch(ctx, state.RemoveModule{Name: name})
	return err
}

// Analyze returns testing insights for a module, asking the AI service only
// when the module has none yet or force is set.
func (w *Workspace) Analyze(ctx context.Context, name string, force bool) (string, error) {
	s := w.store.GetState()
	m, ok := s.Module(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", appmodule.ErrModuleNotFound, name)
	}
	if m.Insights != "" && !force {
		return m.Insights, nil
	}

	insights, err := w.ai.AnalyzeModule(ctx, m.Name, m.Description, s.SetupInfo.AppDescription)
	if err != nil {
		return "", &AIError{Op: "analyze module", Err: err}
	}

	if force {
		if _, err := w.store.Dispatch(ctx, state.ClearModuleInsights{Name: m.Name}); err != nil {
			return "", err
		}
	}
	if _, err := w.store.Dispatch(ctx, state.SetModuleInsights{Name: m.Name, Insights: insights}); err != nil {
		return "", err
	}
	return insights, nil
}

// GenerateOptions selects the modules and shape of a generation batch.
type GenerateOptions struct {
	// Modules names the modules to generate for; empty means all of them.
	Modules []string
	Count   int
	Types   []testcase.Type
}

// Generate creates test cases for each selected module in turn. Each module's
// cases are committed before the next module is processed, so on error the
// cases of earlier modules are kept and returned with the error.
func (w *Workspace) Generate(ctx context.Context, opts GenerateOptions) ([]testcase.TestCase, error) {
	s := w.store.GetState()

	modules := s.DiscoveredModules
	if len(opts.Modules) > 0 {
		modules = make([]appmodule.DiscoveredModule, 0, len(opts.Modules))
		for _, name := range opts.Modules {
			m, ok := s.Module(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", appmodule.ErrModuleNotFound, name)
			}
			modules = append(modules, m)
		}
	}
	if len(modules) == 0 {
		return nil, ErrNoModules
	}

	var commitErr error
	commit := func(ctx context.Context, m appmodule.DiscoveredModule, cases []testcase.TestCase) error {
		if _, err := w.store.Dispatch(ctx, state.AddTestCases{Cases: cases}); err != nil {
			commitErr = err
			return err
		}
		w.logger.Info(ctx, "Test cases committed", map[string]interface{}{
			"module": m.Name,
			"count":  len(cases),
		})
		return nil
	}

	produced, err := qagen.GenerateForModules(ctx, w.ai, modules, s.TestCases, qagen.BatchOptions{
		Count:          opts.Count,
		Types:          opts.Types,
		AppDescription: s.SetupInfo.AppDescription,
	}, commit)
	if err != nil && commitErr == nil && !isContextErr(err) {
		err = &AIError{Op: "generate test cases", Err: err}
	}
	return produced, err
}

// Predict asks the AI service for the outcome of each listed case and records
// it. With no IDs every Pending case is predicted. Cases are processed in
// order and the first error stops the run; earlier predictions stay recorded.
func (w *Workspace) Predict(ctx context.Context, ids []string) ([]testcase.TestCase, error) {
	s := w.store.GetState()

	var targets []testcase.TestCase
	if len(ids) == 0 {
		for _, tc := range s.TestCases {
			if tc.Status == testcase.StatusPending {
				targets = append(targets, tc)
			}
		}
	} else {
		for _, id := range ids {
			tc, ok := s.TestCase(id)
			if !ok {
				return nil, fmt.Errorf("%w: %s", testcase.ErrTestCaseNotFound, id)
			}
			targets = append(targets, tc)
		}
	}

	var done []testcase.TestCase
	for _, tc := range targets {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		prediction, err := w.ai.PredictExecution(ctx, tc, s.SetupInfo.AppDescription)
		if err != nil {
			return done, &AIError{Op: "predict " + tc.ID, Err: err}
		}

		if _, err := w.store.Dispatch(ctx, state.RecordResult{
			ID:            tc.ID,
			Status:        prediction.Status,
			ActualResults: prediction.ActualResults,
		}); err != nil {
			return done, err
		}
		tc.Status = prediction.Status
		tc.ActualResults = prediction.ActualResults
		done = append(done, tc)
	}
	return done, nil
}

// Record stores a manual execution result. status is matched ignoring case.
func (w *Workspace) Record(ctx context.Context, id, status, actual string) error {
	parsed, ok := testcase.ParseStatus(status)
	if !ok {
		return fmt.Errorf("%w: %q", testcase.ErrInvalidStatus, status)
	}
	_, err := w.store.Dispatch(ctx, state.RecordResult{ID: id, Status: parsed, ActualResults: actual})
	return err
}

// DeleteTestCase removes one test case.
func (w *Workspace) DeleteTestCase(ctx context.Context, id string) error {
	_, err := w.store.Dispatch(ctx, state.DeleteTestCase{ID: id})
	return err
}

// ResetResults puts every test case back to Pending.
func (w *Workspace) ResetResults(ctx context.Context) error {
	_, err := w.store.Dispatch(ctx, state.ResetResults{})
	return err
}

// Reset discards the whole project.
func (w *Workspace) Reset(ctx context.Context) error {
	_, err := w.store.Dispatch(ctx, state.Reset{})
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
