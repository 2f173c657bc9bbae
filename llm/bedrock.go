package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	bedrockAnthropicVersion = "bedrock-2023-05-31"
	defaultBedrockMaxTokens = 4096

	jsonOnlyInstruction = "Respond with a single valid JSON document and nothing else."
)

// bedrockInvoker is the slice of the Bedrock runtime client the transport needs.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockTransport implements Transport using Anthropic models on AWS Bedrock.
type BedrockTransport struct {
	client    bedrockInvoker
	maxTokens int
}

// NewBedrockTransport creates a Bedrock transport for region.
func NewBedrockTransport(ctx context.Context, region string, maxTokens int) (*BedrockTransport, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newBedrockTransport(bedrockruntime.NewFromConfig(cfg), maxTokens), nil
}

func newBedrockTransport(client bedrockInvoker, maxTokens int) *BedrockTransport {
	if maxTokens <= 0 {
		maxTokens = defaultBedrockMaxTokens
	}
	return &BedrockTransport{client: client, maxTokens: maxTokens}
}

type bedrockContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bedrockMessage struct {
	Role    string           `json:"role"`
	Content []bedrockContent `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content    []bedrockContent `json:"content"`
	StopReason string           `json:"stop_reason"`
}

// GenerateContent invokes model with prompt. Bedrock has no sampling seed, so a
// seeded request is sent with temperature 0 instead.
func (t *BedrockTransport) GenerateContent(ctx context.Context, model, prompt string, cfg GenerateConfig) (*Response, error) {
	req := bedrockRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        t.maxTokens,
		Messages: []bedrockMessage{
			{
				Role:    "user",
				Content: []bedrockContent{{Type: "text", Text: prompt}},
			},
		},
	}
	if cfg.ResponseMIMEType == MIMETypeJSON {
		req.System = jsonOnlyInstruction
	}
	if cfg.Seed != nil {
		zero := 0.0
		req.Temperature = &zero
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, err
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return &Response{
		Text:         strings.TrimSpace(text.String()),
		FinishReason: bedrockFinishReason(resp.StopReason),
	}, nil
}

func bedrockFinishReason(stopReason string) FinishReason {
	switch stopReason {
	case "refusal":
		return FinishReasonSafety
	case "max_tokens":
		return FinishReasonLength
	case "end_turn", "stop_sequence":
		return FinishReasonStop
	default:
		return FinishReasonUnknown
	}
}
