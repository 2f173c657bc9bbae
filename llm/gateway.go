package llm

import (
	"context"

	"github.com/hairizuan-noorazman/testpilot/logger"
)

// Gateway is the single entry point for AI calls: every call goes through
// the transport wrapped in the retry policy.
type Gateway struct {
	transport Transport
	model     string
	retrier   *Retrier
	logger    logger.Logger
}

// NewGateway creates a gateway calling model over transport.
func NewGateway(transport Transport, model string, retrier *Retrier, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	if retrier == nil {
		retrier = NewRetrier(log)
	}
	return &Gateway{
		transport: transport,
		model:     model,
		retrier:   retrier,
		logger:    log,
	}
}

// Model returns the model identifier sent with every call.
func (g *Gateway) Model() string {
	return g.model
}

// Generate sends prompt to the model, retrying transient failures.
func (g *Gateway) Generate(ctx context.Context, prompt string, cfg GenerateConfig) (*Response, error) {
	g.logger.Debug(ctx, "Calling AI service", map[string]interface{}{
		"model":         g.model,
		"prompt_length": len(prompt),
		"json":          cfg.ResponseMIMEType == MIMETypeJSON,
		"seeded":        cfg.Seed != nil,
	})

	resp, err := Retry(ctx, g.retrier, func(ctx context.Context) (*Response, error) {
		return g.transport.GenerateContent(ctx, g.model, prompt, cfg)
	})
	if err != nil {
		g.logger.Error(ctx, "AI call failed", map[string]interface{}{
			"model": g.model,
			"kind":  string(Classify(err).Kind),
			"error": err.Error(),
		})
		return nil, err
	}
	return resp, nil
}
