// Package agent drives one conversational turn through rounds of completion
// requests and tool execution until a terminal reply is produced.
//
// Invariants:
// - Assistant content blocks, thinking blocks included, are re-submitted
//   verbatim on every subsequent round.
// - Every tool_use block is answered by a tool_result block with the same id
//   in the immediately following user entry.
// - Tool failures become conversational content; only completion failures
//   propagate to the caller.
//
// Usage:
//
//	runner, _ := agent.NewRunner(agent.Config{...})
//	result, err := runner.RunTurn(ctx, "start sleep", session.History)
//	if err == nil {
//		session.History = result.History
//	}
package agent
