package workspace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/qagen"
	"github.com/hairizuan-noorazman/testpilot/state"
	"github.com/hairizuan-noorazman/testpilot/testcase"
	"github.com/hairizuan-noorazman/testpilot/testutil"
)

type fakeAI struct {
	suggestions  []appmodule.SuggestedModule
	discoverErr  error
	discoverCall []bool

	insights     string
	analyzeCalls int

	drafts      map[string][]qagen.Draft
	generateErr map[string]error
	requests    []qagen.GenerateRequest

	predictions map[string]qagen.Prediction
	predictErr  map[string]error
	predicted   []string
}

func (f *fakeAI) DiscoverModules(ctx context.Context, setup state.SetupInfo, force bool) ([]appmodule.SuggestedModule, error) {
	f.discoverCall = append(f.discoverCall, force)
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.suggestions, nil
}

func (f *fakeAI) AnalyzeModule(ctx context.Context, name, description, appDescription string) (string, error) {
	f.analyzeCalls++
	return fmt.Sprintf("%s #%d", f.insights, f.analyzeCalls), nil
}

func (f *fakeAI) GenerateTestCases(ctx context.Context, req qagen.GenerateRequest) ([]qagen.Draft, error) {
	f.requests = append(f.requests, req)
	if err := f.generateErr[req.ModuleName]; err != nil {
		return nil, err
	}
	return f.drafts[req.ModuleName], nil
}

func (f *fakeAI) PredictExecution(ctx context.Context, tc testcase.TestCase, appDescription string) (qagen.Prediction, error) {
	f.predicted = append(f.predicted, tc.ID)
	if err := f.predictErr[tc.ID]; err != nil {
		return qagen.Prediction{}, err
	}
	return f.predictions[tc.ID], nil
}

func newTestWorkspace(t *testing.T, ai *fakeAI) (*Workspace, *state.MemoryBackend) {
	t.Helper()
	backend := state.NewMemoryBackend()
	store := state.NewStore(backend, logger.NewTestLogger())
	require.NoError(t, store.Load(context.Background()))
	return New(store, ai, logger.NewTestLogger()), backend
}

func seed(t *testing.T, w *Workspace, modules []string, cases ...testcase.TestCase) {
	t.Helper()
	ctx := context.Background()
	for _, name := range modules {
		_, err := w.AddModule(ctx, name, name+" area")
		require.NoError(t, err)
	}
	_, err := w.store.Dispatch(ctx, state.AddTestCases{Cases: cases})
	require.NoError(t, err)
}

func TestDiscover_Cache(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{suggestions: []appmodule.SuggestedModule{{Name: "Cart"}, {Name: "Login"}}}
	w, _ := newTestWorkspace(t, ai)
	require.NoError(t, w.SetSetup(ctx, state.SetupInfo{AppURL: "https://shop.example.com"}))

	modules, cached, err := w.Discover(ctx, false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, modules, 2)

	modules, cached, err = w.Discover(ctx, false)
	require.NoError(t, err)
	assert.True(t, cached, "same inputs hit the cache")
	assert.Len(t, modules, 2)
	assert.Equal(t, []bool{false}, ai.discoverCall)

	_, cached, err = w.Discover(ctx, true)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []bool{false, true}, ai.discoverCall)

	require.NoError(t, w.SetSetup(ctx, state.SetupInfo{AppURL: "https://other.example.com"}))
	_, cached, err = w.Discover(ctx, false)
	require.NoError(t, err)
	assert.False(t, cached, "changed inputs invalidate the cache")
	assert.Len(t, ai.discoverCall, 3)

	loginOnly := state.SetupInfo{AppURL: "https://other.example.com", LoginDetails: "admin/admin"}
	require.NoError(t, w.SetSetup(ctx, loginOnly))
	_, cached, err = w.Discover(ctx, false)
	require.NoError(t, err)
	assert.True(t, cached, "login details are not part of the cache key")
}

func TestDiscover_ErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{discoverErr: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}}
	w, _ := newTestWorkspace(t, ai)
	require.NoError(t, w.SetSetup(ctx, state.SetupInfo{AppDescription: "Shop"}))

	_, _, err := w.Discover(ctx, false)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Contains(t, Describe(err), "Quota Exceeded")
	assert.Nil(t, w.State().CachedSuggestions)
}

func TestAcceptSuggestions(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{suggestions: []appmodule.SuggestedModule{
		{Name: "Cart", Description: "Basket"},
		{Name: "Login", Description: "Sign in"},
	}}
	w, _ := newTestWorkspace(t, ai)

	_, err := w.AcceptSuggestions(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSuggestions)

	require.NoError(t, w.SetSetup(ctx, state.SetupInfo{AppURL: "https://shop.example.com"}))
	_, _, err = w.Discover(ctx, false)
	require.NoError(t, err)

	_, err = w.AcceptSuggestions(ctx, []string{"Checkout"})
	assert.ErrorIs(t, err, ErrSuggestionNotFound)

	added, err := w.AcceptSuggestions(ctx, []string{"Cart"})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "Basket", added[0].Description)
	assert.NotEmpty(t, added[0].ID)

	added, err = w.AcceptSuggestions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, added, 1, "Cart is already present")
	assert.Equal(t, "Login", added[0].Name)
	assert.Len(t, w.State().DiscoveredModules, 2)
}

func TestAddModule_Duplicate(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t, &fakeAI{})

	first, err := w.AddModule(ctx, "  Order\nHistory ", "Past orders")
	require.NoError(t, err)
	assert.Equal(t, "Order History", first.Name)

	second, err := w.AddModule(ctx, "Order History", "different")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Past orders", second.Description)

	_, err = w.AddModule(ctx, "   ", "")
	assert.ErrorIs(t, err, appmodule.ErrInvalidModuleName)
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{insights: "Check totals"}
	w, _ := newTestWorkspace(t, ai)
	seed(t, w, []string{"Cart"})

	got, err := w.Analyze(ctx, "Cart", false)
	require.NoError(t, err)
	assert.Equal(t, "Check totals #1", got)

	got, err = w.Analyze(ctx, "Cart", false)
	require.NoError(t, err)
	assert.Equal(t, "Check totals #1", got, "insights are set once")
	assert.Equal(t, 1, ai.analyzeCalls)

	got, err = w.Analyze(ctx, "Cart", true)
	require.NoError(t, err)
	assert.Equal(t, "Check totals #2", got)
	m, _ := w.State().Module("Cart")
	assert.Equal(t, "Check totals #2", m.Insights)

	_, err = w.Analyze(ctx, "Nope", false)
	assert.ErrorIs(t, err, appmodule.ErrModuleNotFound)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{drafts: map[string][]qagen.Draft{
		"Cart":  {{Title: "Remove", Steps: []string{"remove"}, Type: testcase.TypeFunctional}},
		"Login": {{Title: "Bad password", Steps: []string{"login"}, Type: testcase.TypeNegative}},
	}}
	w, backend := newTestWorkspace(t, ai)
	seed(t, w, []string{"Cart", "Login"}, testutil.NewTestCases("Cart", 3)...)

	produced, err := w.Generate(ctx, GenerateOptions{Count: 1, Types: []testcase.Type{testcase.TypeNegative}})
	require.NoError(t, err)
	require.Len(t, produced, 2)
	assert.Equal(t, "CART_004", produced[0].ID)
	assert.Equal(t, "LOGI_001", produced[1].ID)
	assert.Equal(t, 3, ai.requests[0].ExistingCount)
	assert.Equal(t, []testcase.Type{testcase.TypeNegative}, ai.requests[1].Types)

	assert.Len(t, w.State().TestCases, 5)
	data, err := backend.Read(ctx, state.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LOGI_001")
}

func TestGenerate_FailureKeepsEarlierModules(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{
		drafts:      map[string][]qagen.Draft{"Cart": {{Title: "Add", Steps: []string{"add"}}}},
		generateErr: map[string]error{"Login": genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."}},
	}
	w, _ := newTestWorkspace(t, ai)
	seed(t, w, []string{"Cart", "Login", "Search"})

	produced, err := w.Generate(ctx, GenerateOptions{})
	require.Error(t, err)
	assert.Len(t, produced, 1)
	assert.Len(t, w.State().TestCases, 1, "the first module stays committed")
	assert.Len(t, ai.requests, 2)
	assert.Contains(t, Describe(err), "Invalid API key")
}

func TestGenerate_Selection(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t, &fakeAI{})

	_, err := w.Generate(ctx, GenerateOptions{})
	assert.ErrorIs(t, err, ErrNoModules)

	_, err = w.Generate(ctx, GenerateOptions{Modules: []string{"Ghost"}})
	assert.ErrorIs(t, err, appmodule.ErrModuleNotFound)
}

func TestPredict(t *testing.T) {
	ctx := context.Background()
	cases := testutil.NewTestCases("Cart", 3)
	cases[1] = testutil.WithResult(cases[1], testcase.StatusPassed, "done by hand")

	ai := &fakeAI{
		predictions: map[string]qagen.Prediction{
			"CART_001": {Status: testcase.StatusFailed, ActualResults: "Totals wrong"},
		},
		predictErr: map[string]error{"CART_003": errors.New("response blocked by safety filters")},
	}
	w, _ := newTestWorkspace(t, ai)
	seed(t, w, []string{"Cart"}, cases...)

	done, err := w.Predict(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, Describe(err), "safety")
	assert.Equal(t, []string{"CART_001", "CART_003"}, ai.predicted, "only Pending cases, in order")
	require.Len(t, done, 1)

	tc, _ := w.State().TestCase("CART_001")
	assert.Equal(t, testcase.StatusFailed, tc.Status)
	assert.Equal(t, "Totals wrong", tc.ActualResults)

	_, err = w.Predict(ctx, []string{"NOPE_001"})
	assert.ErrorIs(t, err, testcase.ErrTestCaseNotFound)
}

func TestRecordAndReset(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t, &fakeAI{})
	seed(t, w, []string{"Cart"}, testutil.NewTestCases("Cart", 2)...)

	require.NoError(t, w.Record(ctx, "CART_001", "blocked", "env down"))
	tc, _ := w.State().TestCase("CART_001")
	assert.Equal(t, testcase.StatusBlocked, tc.Status)

	assert.ErrorIs(t, w.Record(ctx, "CART_001", "skipped", ""), testcase.ErrInvalidStatus)
	assert.ErrorIs(t, w.Record(ctx, "CART_009", "passed", ""), testcase.ErrTestCaseNotFound)

	require.NoError(t, w.ResetResults(ctx))
	tc, _ = w.State().TestCase("CART_001")
	assert.Equal(t, testcase.StatusPending, tc.Status)
	assert.Empty(t, tc.ActualResults)

	require.NoError(t, w.DeleteTestCase(ctx, "CART_002"))
	assert.Len(t, w.State().TestCases, 1)

	require.NoError(t, w.RemoveModule(ctx, "Cart"))
	assert.Empty(t, w.State().TestCases)

	require.NoError(t, w.Reset(ctx))
	assert.Empty(t, w.State().DiscoveredModules)
}

func TestSummary(t *testing.T) {
	w, _ := newTestWorkspace(t, &fakeAI{})
	cart := testutil.NewTestCases("Cart", 3)
	cart[0] = testutil.WithResult(cart[0], testcase.StatusPassed, "")
	cart[1] = testutil.WithResult(cart[1], testcase.StatusFailed, "")
	orphan := testutil.WithResult(testutil.NewTestCase("IMPO_001", "Imported", "x"), testcase.StatusPassed, "")
	seed(t, w, []string{"Login", "Cart"}, append(cart, orphan)...)

	sum := w.Summary()
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 3, sum.Executed())
	assert.InDelta(t, 66.67, sum.PassRate(), 0.01)

	require.Len(t, sum.Modules, 3)
	assert.Equal(t, "Login", sum.Modules[0].Module)
	assert.Zero(t, sum.Modules[0].Total)
	assert.Equal(t, "Cart", sum.Modules[1].Module)
	assert.Equal(t, 1, sum.Modules[1].Pending)
	assert.Equal(t, "Imported", sum.Modules[2].Module)
	assert.Zero(t, Counts{}.PassRate())
}
