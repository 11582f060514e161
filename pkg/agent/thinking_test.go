package agent

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeForModel(t *testing.T) {
	tests := []struct {
		model string
		want  ThinkingMode
	}{
		{"claude-haiku-4-5-20251001", ThinkingNone},
		{"claude-3-5-haiku-latest", ThinkingNone},
		{"claude-opus-4-6", ThinkingAdaptive},
		{"claude-sonnet-4-5", ThinkingBudget},
		{"claude-opus-4-5", ThinkingBudget},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ModeForModel(tt.model))
		})
	}
}

func TestThinkingModeString(t *testing.T) {
	assert.Equal(t, "none", ThinkingNone.String())
	assert.Equal(t, "adaptive", ThinkingAdaptive.String())
	assert.Equal(t, "budget", ThinkingBudget.String())
}

func TestBuildParams(t *testing.T) {
	req := CompletionRequest{
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("hi")),
		},
	}

	t.Run("should omit thinking for haiku models", func(t *testing.T) {
		p := NewAnthropicProvider("key", "claude-haiku-4-5-20251001", 1000)
		params, opts := p.buildParams(req)
		assert.Empty(t, opts)
		assert.Nil(t, params.Thinking.OfEnabled)
		assert.Equal(t, int64(1000), params.MaxTokens)
	})

	t.Run("should set adaptive thinking via request option", func(t *testing.T) {
		p := NewAnthropicProvider("key", "claude-opus-4-6", 16000)
		params, opts := p.buildParams(req)
		assert.Len(t, opts, 1)
		assert.Nil(t, params.Thinking.OfEnabled)
	})

	t.Run("should set budget thinking on other models", func(t *testing.T) {
		p := NewAnthropicProvider("key", "claude-sonnet-4-5", 16000)
		params, opts := p.buildParams(req)
		assert.Empty(t, opts)
		require.NotNil(t, params.Thinking.OfEnabled)
		assert.Equal(t, int64(DefaultThinkingBudget), params.Thinking.OfEnabled.BudgetTokens)
	})

	t.Run("should default max tokens when unset", func(t *testing.T) {
		p := NewAnthropicProvider("key", "claude-opus-4-6", 0)
		params, _ := p.buildParams(req)
		assert.Equal(t, int64(16000), params.MaxTokens)
	})
}
