// Package prompt builds the system context sent with every completion
// request: a stable behavioral prefix plus a per-turn live-state block.
package prompt

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

const staticTemplate = `You are a baby care assistant integrated with the Huckleberry app.
Help parents track sleep, feeding, diapers, and growth.

Rules:
- Reply in 1-2 short sentences. Parents are using Siri — keep it brief.
- Confirm actions taken (e.g., "Sleep started." or "Poo diaper logged.").
- If ambiguous, ask ONE clarifying question.
- Never give medical advice; recommend consulting a pediatrician.
- Never use emoji. Responses are spoken aloud via Siri — emoji are read out literally and are jarring.

Diaper mode mapping:
- "wet", "pee", "peed" → mode="pee"
- "poo", "poop", "dirty", "bm", "blowout", "soiled" → mode="poo"
- "wet and dirty", "both", "mixed", "pee and poo" → mode="both"
- "dry", "dry check", "just checking" → mode="dry"

Child: %s (uid: %s)
Timezone: %s`

const dynamicTemplate = `Current Baby State (live):
%s`

// BuildSystem returns the system blocks for one turn. The stable prefix and
// the volatile state summary are separate blocks so the prefix stays
// byte-identical across turns.
func BuildSystem(currentState, childName, childUID, timezone string) []anthropic.TextBlockParam {
	return []anthropic.TextBlockParam{
		{Text: fmt.Sprintf(staticTemplate, childName, childUID, timezone)},
		{Text: fmt.Sprintf(dynamicTemplate, currentState)},
	}
}
