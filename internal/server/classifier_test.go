package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierReplying(t *testing.T, text string) *DoneClassifier {
	t.Helper()
	c := NewDoneClassifier("key", "claude-haiku-4-5-20251001", zerolog.Nop())
	c.complete = func(_ context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
		assert.Equal(t, int64(5), params.MaxTokens)
		var msg anthropic.Message
		raw := fmt.Sprintf(`{
			"id": "msg_cls",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": %q}]
		}`, text)
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))
		return &msg, nil
	}
	return c
}

func TestDoneClassifier(t *testing.T) {
	t.Run("should report done on YES", func(t *testing.T) {
		c := classifierReplying(t, "YES")
		assert.True(t, c.Done(context.Background(), "thanks, bye", "Goodbye!"))
	})

	t.Run("should tolerate casing and whitespace", func(t *testing.T) {
		c := classifierReplying(t, "  yes\n")
		assert.True(t, c.Done(context.Background(), "that's all", "Great."))
	})

	t.Run("should report not done on NO", func(t *testing.T) {
		c := classifierReplying(t, "NO")
		assert.False(t, c.Done(context.Background(), "and how long did she sleep?", "40 minutes."))
	})

	t.Run("should default to false on errors", func(t *testing.T) {
		c := NewDoneClassifier("key", "claude-haiku-4-5-20251001", zerolog.Nop())
		c.complete = func(context.Context, anthropic.MessageNewParams) (*anthropic.Message, error) {
			return nil, errors.New("api unavailable")
		}
		assert.False(t, c.Done(context.Background(), "bye", "Bye!"))
	})

	t.Run("should default to false on empty content", func(t *testing.T) {
		c := NewDoneClassifier("key", "claude-haiku-4-5-20251001", zerolog.Nop())
		c.complete = func(context.Context, anthropic.MessageNewParams) (*anthropic.Message, error) {
			var msg anthropic.Message
			require.NoError(t, json.Unmarshal([]byte(`{
				"id": "msg_empty",
				"type": "message",
				"role": "assistant",
				"model": "claude-haiku-4-5-20251001",
				"stop_reason": "end_turn",
				"content": []
			}`), &msg))
			return &msg, nil
		}
		assert.False(t, c.Done(context.Background(), "bye", "Bye!"))
	})
}
