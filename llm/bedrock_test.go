package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockTransport_GenerateContent(t *testing.T) {
	invoker := &fakeInvoker{body: `{"content":[{"type":"text","text":"  [1,2]  "}],"stop_reason":"end_turn"}`}
	transport := newBedrockTransport(invoker, 0)

	resp, err := transport.GenerateContent(context.Background(), "anthropic.claude-3-haiku", "list numbers",
		GenerateConfig{ResponseMIMEType: MIMETypeJSON, Seed: Int32(42)})
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", resp.Text)
	assert.Equal(t, FinishReasonStop, resp.FinishReason)

	assert.Equal(t, "anthropic.claude-3-haiku", *invoker.input.ModelId)

	var sent bedrockRequest
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Equal(t, defaultBedrockMaxTokens, sent.MaxTokens)
	assert.Equal(t, jsonOnlyInstruction, sent.System)
	require.NotNil(t, sent.Temperature)
	assert.Equal(t, 0.0, *sent.Temperature)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "list numbers", sent.Messages[0].Content[0].Text)
}

func TestBedrockTransport_PlainRequest(t *testing.T) {
	invoker := &fakeInvoker{body: `{"content":[{"type":"text","text":"advice"}],"stop_reason":"max_tokens"}`}
	transport := newBedrockTransport(invoker, 512)

	resp, err := transport.GenerateContent(context.Background(), "m", "p", GenerateConfig{})
	require.NoError(t, err)
	assert.Equal(t, FinishReasonLength, resp.FinishReason)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.NotContains(t, sent, "system")
	assert.NotContains(t, sent, "temperature")
	assert.Equal(t, float64(512), sent["max_tokens"])
}

func TestBedrockFinishReason(t *testing.T) {
	assert.Equal(t, FinishReasonSafety, bedrockFinishReason("refusal"))
	assert.Equal(t, FinishReasonStop, bedrockFinishReason("stop_sequence"))
	assert.Equal(t, FinishReasonUnknown, bedrockFinishReason("tool_use"))
}

func TestBedrockTransport_BadBody(t *testing.T) {
	transport := newBedrockTransport(&fakeInvoker{body: "not json"}, 0)
	_, err := transport.GenerateContent(context.Background(), "m", "p", GenerateConfig{})
	assert.Error(t, err)
}
