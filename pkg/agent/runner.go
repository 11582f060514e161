package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"

	"github.com/hollis/cradle/internal/metrics"
	"github.com/hollis/cradle/internal/prompt"
	"github.com/hollis/cradle/pkg/tools"
)

// FallbackReply is returned when the loop hits its iteration ceiling
// without a natural completion.
const FallbackReply = "I'm having trouble processing that right now. Please try again."

// DefaultMaxIterations bounds the completion/tool loop per turn.
const DefaultMaxIterations = 10

// ToolDispatcher executes one tool invocation and always yields a payload.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) tools.Payload
}

// ContextSource supplies the per-turn system context: which child the
// conversation is about and what their live state looks like.
type ContextSource interface {
	PrimaryChildUID() string
	ChildName(uid string) string
	StateSummary(uid string) string
}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	// Reply is the final natural-language response. Empty on an unexpected
	// stop signal; that is a degraded response, not an error.
	Reply string

	// History is the updated conversation history, valid as input to the
	// next turn.
	History []anthropic.MessageParam

	// Rounds is the number of completion requests issued.
	Rounds int
}

// Runner orchestrates the multi-round completion/tool loop.
type Runner struct {
	provider      CompletionProvider
	dispatcher    ToolDispatcher
	source        ContextSource
	toolParams    []anthropic.ToolUnionParam
	timezone      string
	maxIterations int
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

// Config holds runner configuration
type Config struct {
	Provider      CompletionProvider
	Dispatcher    ToolDispatcher
	Source        ContextSource
	Timezone      string
	MaxIterations int
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// NewRunner creates a new turn runner
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("completion provider is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("tool dispatcher is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("context source is required")
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Runner{
		provider:      cfg.Provider,
		dispatcher:    cfg.Dispatcher,
		source:        cfg.Source,
		toolParams:    tools.AnthropicTools(tools.Catalog()),
		timezone:      cfg.Timezone,
		maxIterations: maxIterations,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}, nil
}

// RunTurn runs one conversational turn and returns the reply together with
// the updated history. The input history is not mutated. Errors from the
// completion service propagate; tool failures never do.
func (r *Runner) RunTurn(ctx context.Context, userMessage string, history []anthropic.MessageParam) (TurnResult, error) {
	start := time.Now()

	childUID := r.source.PrimaryChildUID()
	if childUID == "" {
		childUID = "unknown"
	}
	childName := r.source.ChildName(childUID)
	system := prompt.BuildSystem(r.source.StateSummary(childUID), childName, childUID, r.timezone)

	working := make([]anthropic.MessageParam, len(history), len(history)+2)
	copy(working, history)
	working = append(working, anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)))

	reply := ""
	rounds := 0
	done := false

loop:
	for iteration := 0; iteration < r.maxIterations; iteration++ {
		rounds = iteration + 1
		r.logger.Debug().
			Int("iteration", rounds).
			Int("max", r.maxIterations).
			Msg("Agent iteration")

		resp, err := r.provider.Complete(ctx, CompletionRequest{
			System:   system,
			Messages: working,
			Tools:    r.toolParams,
		})
		if err != nil {
			r.metrics.RecordTurn("error", rounds, time.Since(start))
			return TurnResult{}, fmt.Errorf("completion request failed: %w", err)
		}

		// Append the raw block list, thinking blocks included, so later
		// rounds resubmit exactly what the model produced.
		working = append(working, resp.ToParam())

		switch resp.StopReason {
		case anthropic.StopReasonEndTurn:
			reply = collectText(resp)
			done = true
			break loop

		case anthropic.StopReasonToolUse:
			results := r.runToolRound(ctx, resp)
			working = append(working, anthropic.NewUserMessage(results...))

		default:
			r.logger.Warn().
				Str("stop_reason", string(resp.StopReason)).
				Msg("Unexpected stop reason")
			done = true
			break loop
		}
	}

	status := "ok"
	if !done {
		r.logger.Warn().
			Int("max_iterations", r.maxIterations).
			Msg("Reached max iterations without end_turn")
		reply = FallbackReply
		status = "fallback"
	} else if reply == "" {
		status = "degraded"
	}
	r.metrics.RecordTurn(status, rounds, time.Since(start))

	return TurnResult{Reply: reply, History: working, Rounds: rounds}, nil
}

type invocation struct {
	id   string
	name string
	args map[string]any
}

// runToolRound executes every tool invocation in the response concurrently
// and returns the result blocks in invocation order.
func (r *Runner) runToolRound(ctx context.Context, resp *anthropic.Message) []anthropic.ContentBlockParamUnion {
	var calls []invocation
	for _, block := range resp.Content {
		tu, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}

		var args map[string]any
		if raw := tu.JSON.Input.Raw(); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				r.logger.Warn().Err(err).Str("tool", tu.Name).Msg("Failed to parse tool input")
				args = nil
			}
		}
		calls = append(calls, invocation{id: tu.ID, name: tu.Name, args: args})
	}

	results := make([]anthropic.ContentBlockParamUnion, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call invocation) {
			defer wg.Done()
			payload := r.dispatcher.Dispatch(ctx, call.name, call.args)
			results[i] = anthropic.NewToolResultBlock(
				call.id,
				tools.RenderResult(payload),
				tools.IsErrorPayload(payload),
			)
		}(i, call)
	}
	wg.Wait()

	return results
}

// collectText joins the plain-text blocks of a response in block order.
func collectText(resp *anthropic.Message) string {
	var parts []string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
