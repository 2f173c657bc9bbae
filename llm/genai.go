package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAITransport implements Transport using the Gemini API.
type GenAITransport struct {
	client *genai.Client
}

// NewGenAITransport creates a Gemini transport authenticated by apiKey.
func NewGenAITransport(ctx context.Context, apiKey string) (*GenAITransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAITransport{client: client}, nil
}

// GenerateContent sends prompt to model and returns the first candidate's text.
// API errors are returned as produced by the SDK so the classifier can read them.
func (t *GenAITransport) GenerateContent(ctx context.Context, model, prompt string, cfg GenerateConfig) (*Response, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: cfg.ResponseMIMEType,
		Seed:             cfg.Seed,
	}

	resp, err := t.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:         strings.TrimSpace(resp.Text()),
		FinishReason: genaiFinishReason(resp),
	}, nil
}

func genaiFinishReason(resp *genai.GenerateContentResponse) FinishReason {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return FinishReasonSafety
	}
	if len(resp.Candidates) == 0 {
		return FinishReasonUnknown
	}

	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return FinishReasonSafety
	case genai.FinishReasonMaxTokens:
		return FinishReasonLength
	case genai.FinishReasonStop:
		return FinishReasonStop
	default:
		return FinishReasonUnknown
	}
}
