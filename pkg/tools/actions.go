package tools

import (
	"context"
)

// Payload is the plain key-value result of one backend action.
type Payload = map[string]any

// DiaperChange carries the fields of a diaper log entry. Mode is required;
// the rest are optional and omitted from the backend call when empty.
type DiaperChange struct {
	Mode        string
	PeeAmount   string
	PooAmount   string
	Color       string
	Consistency string
}

// GrowthMeasurement carries an optional set of growth readings. Nil fields
// are not submitted.
type GrowthMeasurement struct {
	Weight *float64
	Height *float64
	Head   *float64
	Units  string
}

// Actions is the backend action provider the dispatcher invokes. One method
// per domain action; each returns a plain payload or an error.
type Actions interface {
	CurrentState(ctx context.Context, childUID string) (Payload, error)

	StartSleep(ctx context.Context, childUID string) (Payload, error)
	PauseSleep(ctx context.Context, childUID string) (Payload, error)
	ResumeSleep(ctx context.Context, childUID string) (Payload, error)
	CompleteSleep(ctx context.Context, childUID string) (Payload, error)
	CancelSleep(ctx context.Context, childUID string) (Payload, error)

	StartFeeding(ctx context.Context, childUID, side string) (Payload, error)
	PauseFeeding(ctx context.Context, childUID string) (Payload, error)
	ResumeFeeding(ctx context.Context, childUID string) (Payload, error)
	SwitchFeedingSide(ctx context.Context, childUID string) (Payload, error)
	CompleteFeeding(ctx context.Context, childUID string) (Payload, error)
	CancelFeeding(ctx context.Context, childUID string) (Payload, error)

	LogBottleFeeding(ctx context.Context, childUID string, amount float64, bottleType, units string) (Payload, error)
	LogDiaper(ctx context.Context, childUID string, change DiaperChange) (Payload, error)
	LogGrowth(ctx context.Context, childUID string, m GrowthMeasurement) (Payload, error)
	GrowthData(ctx context.Context, childUID string) (Payload, error)
	History(ctx context.Context, childUID string, start, end int64) (Payload, error)

	// PrimaryChildUID returns the default child uid, or "" when the account
	// has no children.
	PrimaryChildUID() string

	// ChildName resolves a child's display name, falling back to the uid.
	ChildName(uid string) string
}
