package tools

import (
	"github.com/anthropics/anthropic-sdk-go"
)

// Definition declares one tool: its name, the description shown to the
// model, and the JSON-schema shape of its arguments. The same schema is
// sent to the completion service and enforced at dispatch time.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func withChildUID(props map[string]any) map[string]any {
	merged := map[string]any{
		"child_uid": map[string]any{
			"type":        "string",
			"description": "Child UID to act on. If omitted the primary child is used.",
		},
	}
	for k, v := range props {
		merged[k] = v
	}
	return merged
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": withChildUID(props),
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Catalog returns the static tool catalog. The slice is rebuilt on each call
// so callers may not mutate shared state.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        "get_current_state",
			Description: "Get the current live state for a child (sleep status, feeding status, etc.).",
			InputSchema: objectSchema(nil),
		},

		// Sleep
		{
			Name:        "start_sleep",
			Description: "Start tracking a sleep session for the child right now.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "pause_sleep",
			Description: "Pause the active sleep session (e.g., baby woke briefly).",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "resume_sleep",
			Description: "Resume a paused sleep session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "complete_sleep",
			Description: "End and save the active sleep session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "cancel_sleep",
			Description: "Cancel and discard the active sleep session without saving.",
			InputSchema: objectSchema(nil),
		},

		// Breastfeeding
		{
			Name:        "start_feeding",
			Description: "Start tracking a breastfeeding session.",
			InputSchema: objectSchema(map[string]any{
				"side": map[string]any{
					"type":        "string",
					"enum":        []string{"left", "right"},
					"description": "Which breast to start on (optional).",
				},
			}),
		},
		{
			Name:        "pause_feeding",
			Description: "Pause the active feeding session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "resume_feeding",
			Description: "Resume a paused feeding session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "switch_feeding_side",
			Description: "Switch to the other breast during an active feeding session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "complete_feeding",
			Description: "End and save the active feeding session.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "cancel_feeding",
			Description: "Cancel and discard the active feeding session without saving.",
			InputSchema: objectSchema(nil),
		},

		// Bottle feeding
		{
			Name:        "log_bottle_feeding",
			Description: "Log a completed bottle feeding session.",
			InputSchema: objectSchema(map[string]any{
				"amount": map[string]any{
					"type":        "number",
					"description": "Volume of milk/formula given.",
				},
				"bottle_type": map[string]any{
					"type":        "string",
					"enum":        []string{"Breast Milk", "Formula", "Mixed"},
					"description": "Type of liquid in the bottle.",
				},
				"units": map[string]any{
					"type":        "string",
					"enum":        []string{"oz", "ml"},
					"description": "Unit of measurement for the amount.",
				},
			}, "amount", "bottle_type", "units"),
		},

		// Diaper
		{
			Name: "log_diaper",
			Description: "Log a diaper change. " +
				"Use mode='pee' for wet/pee-only diapers, " +
				"'poo' for dirty/poo-only diapers, " +
				"'both' for mixed wet-and-dirty diapers, " +
				"'dry' for a dry check.",
			InputSchema: objectSchema(map[string]any{
				"mode": map[string]any{
					"type": "string",
					"enum": []string{"pee", "poo", "both", "dry"},
					"description": "Diaper type: 'pee' (wet only), 'poo' (dirty/poo only), " +
						"'both' (wet and dirty), 'dry' (no change needed).",
				},
				"pee_amount": map[string]any{
					"type":        "string",
					"enum":        []string{"little", "medium", "big"},
					"description": "Amount of pee (optional).",
				},
				"poo_amount": map[string]any{
					"type":        "string",
					"enum":        []string{"little", "medium", "big"},
					"description": "Amount of poo (optional).",
				},
				"color": map[string]any{
					"type":        "string",
					"enum":        []string{"yellow", "brown", "black", "green", "red", "gray"},
					"description": "Color of the stool.",
				},
				"consistency": map[string]any{
					"type":        "string",
					"enum":        []string{"solid", "loose", "runny", "mucousy", "hard", "pebbles", "diarrhea"},
					"description": "Consistency of the stool.",
				},
			}, "mode"),
		},

		// Growth
		{
			Name:        "log_growth",
			Description: "Log a growth measurement (weight, height, head circumference).",
			InputSchema: objectSchema(map[string]any{
				"weight": map[string]any{
					"type":        "number",
					"description": "Weight measurement.",
				},
				"height": map[string]any{
					"type":        "number",
					"description": "Height/length measurement.",
				},
				"head": map[string]any{
					"type":        "number",
					"description": "Head circumference measurement.",
				},
				"units": map[string]any{
					"type":        "string",
					"enum":        []string{"imperial", "metric"},
					"description": "Unit system: imperial (lbs/in) or metric (kg/cm). Default: imperial.",
				},
			}),
		},
		{
			Name:        "get_growth_data",
			Description: "Retrieve historical growth data for a child.",
			InputSchema: objectSchema(nil),
		},
		{
			Name: "get_history",
			Description: "Retrieve historical records (sleep sessions, feedings, diapers) for a given date. " +
				"Use this to answer questions like 'how many times did the baby sleep today?', " +
				"'when was the last diaper?', or 'how long did the last nap last?'. " +
				"Defaults to today if no date is provided.",
			InputSchema: objectSchema(map[string]any{
				"date": map[string]any{
					"type":        "string",
					"description": "Date to query in YYYY-MM-DD format. Defaults to today.",
				},
				"event_types": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "string",
						"enum": []string{"sleep", "feed", "diaper", "health"},
					},
					"description": "Which event types to include. Defaults to all types.",
				},
			}),
		},
	}
}

// AnthropicTools converts the catalog to the Messages API tool format.
func AnthropicTools(defs []Definition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))

	for _, def := range defs {
		toolParam := anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: def.InputSchema["properties"],
			},
		}
		if required, ok := def.InputSchema["required"].([]string); ok {
			toolParam.InputSchema.Required = required
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}

	return tools
}
