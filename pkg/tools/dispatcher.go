package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hollis/cradle/internal/metrics"
)

type handlerFunc func(ctx context.Context, childUID string, args map[string]any) (Payload, error)

// Dispatcher maps tool names to backend actions. Dispatch never returns a
// Go error: every failure mode becomes an error payload so the conversation
// loop can always continue.
type Dispatcher struct {
	actions  Actions
	loc      *time.Location
	handlers map[string]handlerFunc
	schemas  map[string]*gojsonschema.Schema
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	// now is overridable for tests
	now func() time.Time
}

// NewDispatcher builds the name→handler table and compiles every tool's
// argument schema. The metrics argument may be nil.
func NewDispatcher(actions Actions, loc *time.Location, logger zerolog.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	if actions == nil {
		return nil, fmt.Errorf("actions provider is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	d := &Dispatcher{
		actions: actions,
		loc:     loc,
		schemas: make(map[string]*gojsonschema.Schema),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}

	for _, def := range Catalog() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for tool %s: %w", def.Name, err)
		}
		d.schemas[def.Name] = schema
	}

	d.handlers = map[string]handlerFunc{
		"get_current_state": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.CurrentState(ctx, uid)
		},

		"start_sleep": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.StartSleep(ctx, uid)
		},
		"pause_sleep": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.PauseSleep(ctx, uid)
		},
		"resume_sleep": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.ResumeSleep(ctx, uid)
		},
		"complete_sleep": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.CompleteSleep(ctx, uid)
		},
		"cancel_sleep": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.CancelSleep(ctx, uid)
		},

		"start_feeding": func(ctx context.Context, uid string, args map[string]any) (Payload, error) {
			side, _ := args["side"].(string)
			return d.actions.StartFeeding(ctx, uid, side)
		},
		"pause_feeding": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.PauseFeeding(ctx, uid)
		},
		"resume_feeding": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.ResumeFeeding(ctx, uid)
		},
		"switch_feeding_side": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.SwitchFeedingSide(ctx, uid)
		},
		"complete_feeding": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.CompleteFeeding(ctx, uid)
		},
		"cancel_feeding": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.CancelFeeding(ctx, uid)
		},

		"log_bottle_feeding": d.handleLogBottleFeeding,
		"log_diaper":         d.handleLogDiaper,
		"log_growth":         d.handleLogGrowth,

		"get_growth_data": func(ctx context.Context, uid string, _ map[string]any) (Payload, error) {
			return d.actions.GrowthData(ctx, uid)
		},
		"get_history": d.handleGetHistory,
	}

	return d, nil
}

// Dispatch executes a tool by name and returns a JSON-serialisable payload.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) Payload {
	start := d.now()
	payload := d.dispatch(ctx, name, args)

	status := "ok"
	if _, failed := payload["error"]; failed {
		status = "error"
	}
	d.metrics.RecordToolExecution(name, status, d.now().Sub(start))

	return payload
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args map[string]any) Payload {
	if args == nil {
		args = map[string]any{}
	}

	handler, ok := d.handlers[name]
	if !ok {
		d.logger.Warn().Str("tool", name).Msg("Unknown tool requested")
		return errorPayload(fmt.Sprintf("Unknown tool: %s", name))
	}

	if payload := d.validateArgs(name, args); payload != nil {
		return payload
	}

	// Fall back to the primary child if not provided
	childUID, _ := args["child_uid"].(string)
	if childUID == "" {
		childUID = d.actions.PrimaryChildUID()
	}
	if childUID == "" {
		return errorPayload("No child found. Please check Huckleberry setup.")
	}

	result, err := handler(ctx, childUID, args)
	if err != nil {
		d.logger.Error().Err(err).Str("tool", name).Msg("Tool execution failed")
		return errorPayload(err.Error())
	}
	return result
}

func (d *Dispatcher) validateArgs(name string, args map[string]any) Payload {
	schema := d.schemas[name]
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return errorPayload(fmt.Sprintf("Invalid arguments for %s: %v", name, err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errorPayload(fmt.Sprintf("Invalid arguments for %s: %s", name, strings.Join(details, "; ")))
	}
	return nil
}

func (d *Dispatcher) handleLogBottleFeeding(ctx context.Context, uid string, args map[string]any) (Payload, error) {
	amount, ok := floatArg(args, "amount")
	if !ok {
		return nil, fmt.Errorf("amount must be a number")
	}
	bottleType, _ := args["bottle_type"].(string)
	units, _ := args["units"].(string)
	return d.actions.LogBottleFeeding(ctx, uid, amount, bottleType, units)
}

func (d *Dispatcher) handleLogDiaper(ctx context.Context, uid string, args map[string]any) (Payload, error) {
	change := DiaperChange{}
	change.Mode, _ = args["mode"].(string)
	change.PeeAmount, _ = args["pee_amount"].(string)
	change.PooAmount, _ = args["poo_amount"].(string)
	change.Color, _ = args["color"].(string)
	change.Consistency, _ = args["consistency"].(string)
	return d.actions.LogDiaper(ctx, uid, change)
}

func (d *Dispatcher) handleLogGrowth(ctx context.Context, uid string, args map[string]any) (Payload, error) {
	m := GrowthMeasurement{
		Weight: optFloat(args, "weight"),
		Height: optFloat(args, "height"),
		Head:   optFloat(args, "head"),
	}
	m.Units, _ = args["units"].(string)
	if m.Units == "" {
		m.Units = "imperial"
	}
	return d.actions.LogGrowth(ctx, uid, m)
}

func (d *Dispatcher) handleGetHistory(ctx context.Context, uid string, args map[string]any) (Payload, error) {
	var day time.Time
	if dateStr, _ := args["date"].(string); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, d.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", dateStr)
		}
		day = parsed
	} else {
		now := d.now().In(d.loc)
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
	}

	start := day
	end := day.AddDate(0, 0, 1)

	result, err := d.actions.History(ctx, uid, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}

	eventTypes := stringSlice(args["event_types"])
	if len(eventTypes) == 0 {
		return result, nil
	}

	filtered := Payload{}
	for _, et := range eventTypes {
		if v, ok := result[et]; ok {
			filtered[et] = v
		}
	}
	return filtered, nil
}

// RenderResult serializes a payload for embedding in a tool-result block.
func RenderResult(payload Payload) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

// IsErrorPayload reports whether a payload carries an error field.
func IsErrorPayload(payload Payload) bool {
	_, ok := payload["error"]
	return ok
}

func errorPayload(msg string) Payload {
	return Payload{"error": msg}
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func optFloat(args map[string]any, key string) *float64 {
	if v, ok := floatArg(args, key); ok {
		return &v
	}
	return nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
