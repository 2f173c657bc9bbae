package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSafetyBlocked is returned when the service refuses to answer on
	// content-safety grounds.
	ErrSafetyBlocked = errors.New("response blocked by safety filters")

	// ErrEmptyResponse is returned when the service answers with no text.
	ErrEmptyResponse = errors.New("AI service returned an empty response")

	// ErrInvalidProvider is returned for an unknown provider name.
	ErrInvalidProvider = errors.New("invalid AI provider")
)

// MIMETypeJSON asks the service to emit JSON only.
const MIMETypeJSON = "application/json"

// FinishReason tells why the service stopped producing output.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonSafety  FinishReason = "safety"
	FinishReasonLength  FinishReason = "length"
	FinishReasonUnknown FinishReason = ""
)

// GenerateConfig carries the recognised per-call options.
type GenerateConfig struct {
	// ResponseMIMEType forces JSON-only output when set to MIMETypeJSON.
	ResponseMIMEType string

	// Seed fixes sampling when present.
	Seed *int32
}

// Response is the raw model output.
type Response struct {
	Text         string
	FinishReason FinishReason
}

// Blocked reports whether the service stopped for safety reasons.
func (r *Response) Blocked() bool {
	return r != nil && r.FinishReason == FinishReasonSafety
}

// Transport is the single outbound "generate content" call.
// Implementations can use different backends (Gemini, AWS Bedrock, fakes in tests).
type Transport interface {
	GenerateContent(ctx context.Context, model, prompt string, cfg GenerateConfig) (*Response, error)
}

// Provider names a Transport implementation.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderBedrock Provider = "bedrock"
)

// IsValid checks if the provider is supported.
func (p Provider) IsValid() bool {
	return p == ProviderGemini || p == ProviderBedrock
}

// Config selects and configures a transport.
type Config struct {
	Provider      Provider
	APIKey        string
	Model         string
	BedrockRegion string
	MaxTokens     int
}

// NewTransport builds the transport for cfg.Provider.
func NewTransport(ctx context.Context, cfg Config) (Transport, error) {
	switch Provider(strings.ToLower(string(cfg.Provider))) {
	case ProviderGemini, "":
		return NewGenAITransport(ctx, cfg.APIKey)
	case ProviderBedrock:
		return NewBedrockTransport(ctx, cfg.BedrockRegion, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, cfg.Provider)
	}
}

// Int32 returns a pointer to v, for GenerateConfig.Seed.
func Int32(v int32) *int32 {
	return &v
}
