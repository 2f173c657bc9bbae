package qagen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/llm"
	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/state"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

var (
	// ErrMissingAppContext is returned when discovery has neither an app URL nor a description.
	ErrMissingAppContext = errors.New("an app URL or app description is required")

	// ErrMalformedResponse is returned when the model output cannot be read as the required structure.
	ErrMalformedResponse = errors.New("AI response could not be parsed")
)

// DefaultDiscoverySeed keeps repeated discovery calls stable unless a refresh is forced.
const DefaultDiscoverySeed int32 = 42

const defaultCaseCount = 5

// Generator is the AI call the service depends on. *llm.Gateway implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (*llm.Response, error)
}

// Draft is a generated test case before it is given an ID and a module.
type Draft struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Steps           []string      `json:"steps"`
	ExpectedResults string        `json:"expectedResults"`
	Type            testcase.Type `json:"type"`
}

// Prediction is the predicted outcome of executing a test case.
type Prediction struct {
	Status        testcase.Status `json:"status"`
	ActualResults string          `json:"actualResults"`
}

// Service runs the four AI request kinds: discovery, analysis, generation and
// execution prediction.
type Service struct {
	gen           Generator
	logger        logger.Logger
	validationCfg *ValidationConfig
	seed          int32
}

// NewService creates a new QA generation service.
func NewService(gen Generator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		gen:           gen,
		logger:        log,
		validationCfg: DefaultValidationConfig(),
		seed:          DefaultDiscoverySeed,
	}
}

// SetValidationConfig sets the validation configuration for prompts.
func (s *Service) SetValidationConfig(cfg *ValidationConfig) {
	s.validationCfg = cfg
}

// SetDiscoverySeed sets the sampling seed used by non-forced discovery.
func (s *Service) SetDiscoverySeed(seed int32) {
	s.seed = seed
}

// DiscoverModules asks the model for the application's functional modules.
// Unless forceRefresh is set the call uses a fixed seed.
func (s *Service) DiscoverModules(ctx context.Context, setup state.SetupInfo, forceRefresh bool) ([]appmodule.SuggestedModule, error) {
	if strings.TrimSpace(setup.AppURL) == "" && strings.TrimSpace(setup.AppDescription) == "" {
		return nil, ErrMissingAppContext
	}

	prompt, err := BuildDiscoveryPrompt(setup, s.validationCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	cfg := llm.GenerateConfig{ResponseMIMEType: llm.MIMETypeJSON}
	if !forceRefresh {
		cfg.Seed = llm.Int32(s.seed)
	}

	resp, err := s.generate(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}

	raw, ok := llm.ParseJSON[[]appmodule.SuggestedModule](resp.Text)
	if !ok {
		s.logger.Warn(ctx, "Unparseable discovery response", map[string]interface{}{
			"response_length": len(resp.Text),
		})
		return nil, fmt.Errorf("%w: expected a JSON array of modules", ErrMalformedResponse)
	}

	seen := make(map[string]bool, len(raw))
	modules := make([]appmodule.SuggestedModule, 0, len(raw))
	for _, m := range raw {
		name := strings.TrimSpace(m.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		modules = append(modules, appmodule.SuggestedModule{
			Name:        name,
			Description: strings.TrimSpace(m.Description),
		})
	}

	s.logger.Info(ctx, "Modules discovered", map[string]interface{}{
		"count":         len(modules),
		"force_refresh": forceRefresh,
	})
	return modules, nil
}

// AnalyzeModule asks the model for free-text testing insights about a module.
func (s *Service) AnalyzeModule(ctx context.Context, name, description, appDescription string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", appmodule.ErrInvalidModuleName
	}

	prompt, err := BuildAnalysisPrompt(name, description, appDescription, s.validationCfg)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := s.generate(ctx, prompt, llm.GenerateConfig{})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// GenerateTestCases asks the model for new test case drafts for one module.
// Draft types outside the allowed set are coerced to the first allowed type.
func (s *Service) GenerateTestCases(ctx context.Context, req GenerateRequest) ([]Draft, error) {
	if strings.TrimSpace(req.ModuleName) == "" {
		return nil, appmodule.ErrInvalidModuleName
	}
	if req.Count <= 0 {
		req.Count = defaultCaseCount
	}
	if req.Count > s.validationCfg.MaxCasesPerRequest {
		req.Count = s.validationCfg.MaxCasesPerRequest
	}

	prompt, err := BuildGenerationPrompt(req, s.validationCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := s.generate(ctx, prompt, llm.GenerateConfig{ResponseMIMEType: llm.MIMETypeJSON})
	if err != nil {
		return nil, err
	}

	raw, ok := llm.ParseJSON[[]rawDraft](resp.Text)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array of test cases", ErrMalformedResponse)
	}

	drafts := normalizeDrafts(raw, req.Types)
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: no usable test cases in response", ErrMalformedResponse)
	}

	s.logger.Info(ctx, "Test cases generated", map[string]interface{}{
		"module":    req.ModuleName,
		"requested": req.Count,
		"received":  len(drafts),
	})
	return drafts, nil
}

// rawDraft accepts the type as free text so unknown values can be coerced.
type rawDraft struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Steps           []string `json:"steps"`
	ExpectedResults string   `json:"expectedResults"`
	Type            string   `json:"type"`
}

// normalizeDrafts trims fields, drops drafts without steps and coerces each
// type into the allowed set for selected.
func normalizeDrafts(raw []rawDraft, selected []testcase.Type) []Draft {
	allowed := AllowedTypes(selected)
	fallback := testcase.TypeFunctional
	if len(allowed) > 0 {
		fallback = allowed[0]
	}

	drafts := make([]Draft, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		steps := testcase.CleanSteps(r.Steps)
		if len(steps) == 0 {
			continue
		}
		if title == "" {
			title = "Untitled"
		}

		typ, ok := testcase.ParseType(r.Type)
		if !ok || !containsType(allowed, typ) {
			typ = fallback
		}

		drafts = append(drafts, Draft{
			Title:           title,
			Description:     strings.TrimSpace(r.Description),
			Steps:           steps,
			ExpectedResults: strings.TrimSpace(r.ExpectedResults),
			Type:            typ,
		})
	}
	return drafts
}

func containsType(types []testcase.Type, t testcase.Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// PredictExecution asks the model to predict the result of running tc.
// A status outside Passed, Failed and Blocked is recorded as Blocked.
func (s *Service) PredictExecution(ctx context.Context, tc testcase.TestCase, appDescription string) (Prediction, error) {
	prompt, err := BuildPredictionPrompt(tc, appDescription, s.validationCfg)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := s.generate(ctx, prompt, llm.GenerateConfig{ResponseMIMEType: llm.MIMETypeJSON})
	if err != nil {
		return Prediction{}, err
	}

	raw, ok := llm.ParseJSON[struct {
		Status        string `json:"status"`
		ActualResults string `json:"actualResults"`
	}](resp.Text)
	if !ok {
		return Prediction{}, fmt.Errorf("%w: expected a JSON object with status and actualResults", ErrMalformedResponse)
	}

	return normalizePrediction(raw.Status, raw.ActualResults), nil
}

func normalizePrediction(rawStatus, actual string) Prediction {
	actual = strings.TrimSpace(actual)
	status, ok := testcase.ParseStatus(rawStatus)
	if ok && status.IsFinal() {
		return Prediction{Status: status, ActualResults: actual}
	}

	note := fmt.Sprintf("AI returned an invalid status %q; recorded as Blocked.", rawStatus)
	if actual != "" {
		note = actual + "\n\n" + note
	}
	return Prediction{Status: testcase.StatusBlocked, ActualResults: note}
}

// generate calls the model and rejects safety-blocked answers.
func (s *Service) generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (*llm.Response, error) {
	resp, err := s.gen.Generate(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, llm.ErrEmptyResponse
	}
	if resp.Blocked() {
		s.logger.Warn(ctx, "AI response blocked by safety filters", nil)
		return nil, llm.ErrSafetyBlocked
	}
	return resp, nil
}
