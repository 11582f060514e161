package agent

import "strings"

// ThinkingMode is the reasoning-effort directive sent with a completion
// request. The mode is a fixed property of the configured model, not a
// per-request choice.
type ThinkingMode int

const (
	// ThinkingNone omits the thinking parameter entirely. Used for models
	// without reasoning support.
	ThinkingNone ThinkingMode = iota

	// ThinkingAdaptive lets the model scale its own reasoning effort.
	ThinkingAdaptive

	// ThinkingBudget enables reasoning with a fixed token budget.
	ThinkingBudget
)

// DefaultThinkingBudget is the token budget used in ThinkingBudget mode.
const DefaultThinkingBudget = 10000

// ModeForModel returns the thinking mode for the given model.
func ModeForModel(model string) ThinkingMode {
	if strings.Contains(model, "haiku") {
		return ThinkingNone
	}
	if model == "claude-opus-4-6" {
		return ThinkingAdaptive
	}
	return ThinkingBudget
}

func (m ThinkingMode) String() string {
	switch m {
	case ThinkingNone:
		return "none"
	case ThinkingAdaptive:
		return "adaptive"
	case ThinkingBudget:
		return "budget"
	default:
		return "unknown"
	}
}
