package agent

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// CompletionRequest carries one round's input to the completion service.
// Messages hold the full evolving history including prior tool rounds.
type CompletionRequest struct {
	System   []anthropic.TextBlockParam
	Messages []anthropic.MessageParam
	Tools    []anthropic.ToolUnionParam
}

// CompletionProvider is the completion service boundary. The returned
// message must carry the raw content blocks so they can be re-submitted
// verbatim.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (*anthropic.Message, error)
	Model() string
}

// AnthropicProvider implements CompletionProvider against the Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider creates a provider for the given model.
func NewAnthropicProvider(apiKey, model string, maxTokens int) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 16000
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Complete makes one Messages API call with the model's thinking directive.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*anthropic.Message, error) {
	params, opts := p.buildParams(req)
	return p.client.Messages.New(ctx, params, opts...)
}

func (p *AnthropicProvider) buildParams(req CompletionRequest) (anthropic.MessageNewParams, []option.RequestOption) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    req.System,
		Messages:  req.Messages,
		Tools:     req.Tools,
	}

	var opts []option.RequestOption
	switch ModeForModel(p.model) {
	case ThinkingNone:
	case ThinkingAdaptive:
		// The typed thinking union has no adaptive arm yet; set it raw.
		opts = append(opts, option.WithJSONSet("thinking", map[string]any{"type": "adaptive"}))
	case ThinkingBudget:
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: DefaultThinkingBudget,
			},
		}
	}

	return params, opts
}
