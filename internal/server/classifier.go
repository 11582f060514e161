package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const classifierSystem = "You decide if a baby-care assistant conversation is finished. " +
	"Reply with exactly one word: YES or NO.\n" +
	"Reply YES if the user's message is a closing statement (thanks, bye, that's all, " +
	"done, got it, perfect, all set, etc.) OR the exchange is clearly a completed " +
	"one-shot action with no follow-up expected.\n" +
	"Reply NO if the conversation is ongoing or the user may want to do more."

// DoneClassifier asks a small model whether a conversation has wrapped up.
// It is advisory only: any failure reads as "not done".
type DoneClassifier struct {
	model    string
	logger   zerolog.Logger
	complete func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// NewDoneClassifier creates a classifier backed by the given model.
func NewDoneClassifier(apiKey, model string, logger zerolog.Logger) *DoneClassifier {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &DoneClassifier{
		model:  model,
		logger: logger,
		complete: func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
			return client.Messages.New(ctx, params)
		},
	}
}

// Done reports whether the exchange looks like the end of the conversation.
func (c *DoneClassifier) Done(ctx context.Context, userMessage, reply string) bool {
	prompt := fmt.Sprintf("User said: %q\nAssistant replied: %q", userMessage, reply)

	resp, err := c.complete(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 5,
		System:    []anthropic.TextBlockParam{{Text: classifierSystem}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Conversation-done classifier failed, defaulting to false")
		return false
	}

	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(tb.Text)), "YES")
		}
	}
	return false
}
