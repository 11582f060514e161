package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	t.Run("should declare every dispatchable tool exactly once", func(t *testing.T) {
		defs := Catalog()
		seen := map[string]bool{}
		for _, def := range defs {
			assert.False(t, seen[def.Name], "duplicate tool %s", def.Name)
			seen[def.Name] = true
			assert.NotEmpty(t, def.Description, "tool %s missing description", def.Name)
			assert.Equal(t, "object", def.InputSchema["type"])
		}

		assert.Len(t, defs, 17)
		for _, name := range []string{
			"get_current_state",
			"start_sleep", "pause_sleep", "resume_sleep", "complete_sleep", "cancel_sleep",
			"start_feeding", "pause_feeding", "resume_feeding", "switch_feeding_side",
			"complete_feeding", "cancel_feeding",
			"log_bottle_feeding", "log_diaper", "log_growth",
			"get_growth_data", "get_history",
		} {
			assert.True(t, seen[name], "missing tool %s", name)
		}
	})

	t.Run("should give every tool a child_uid property", func(t *testing.T) {
		for _, def := range Catalog() {
			props := def.InputSchema["properties"].(map[string]any)
			assert.Contains(t, props, "child_uid", "tool %s", def.Name)
		}
	})

	t.Run("catalog and dispatch table should agree", func(t *testing.T) {
		d := newTestDispatcher(t, &fakeActions{primaryUID: "child-1"})

		for _, def := range Catalog() {
			_, ok := d.handlers[def.Name]
			assert.True(t, ok, "tool %s has no handler", def.Name)
		}
		assert.Len(t, d.handlers, len(Catalog()))
	})
}

func TestAnthropicTools(t *testing.T) {
	t.Run("should convert definitions to message API params", func(t *testing.T) {
		defs := Catalog()
		params := AnthropicTools(defs)
		require.Len(t, params, len(defs))

		byName := map[string]int{}
		for i, p := range params {
			require.NotNil(t, p.OfTool)
			byName[p.OfTool.Name] = i
		}

		bottle := params[byName["log_bottle_feeding"]].OfTool
		assert.ElementsMatch(t, []string{"amount", "bottle_type", "units"}, bottle.InputSchema.Required)
		assert.NotNil(t, bottle.InputSchema.Properties)

		state := params[byName["get_current_state"]].OfTool
		assert.Empty(t, state.InputSchema.Required)
	})
}
