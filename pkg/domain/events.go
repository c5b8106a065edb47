package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch EventType = "dispatch"
	EventDisplay  EventType = "display"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent describes one completed dispatch.
type DispatchEvent struct {
	EventBase
	Action     ActionID      `json:"action"`
	Status     string        `json:"status"`
	InputSize  int           `json:"input_size"`
	ResultSize int           `json:"result_size"`
	Duration   time.Duration `json:"duration"`
	// Err is set when the transform failed and the result degraded to "".
	Err error `json:"-"`
}

// DisplayEvent describes one replacement of the visible content.
type DisplayEvent struct {
	EventBase
	Size int `json:"size"`
}

// Hooks groups optional observers. Nil fields are skipped.
type Hooks struct {
	OnDispatch func(ctx context.Context, e *DispatchEvent)
	OnDisplay  func(ctx context.Context, e *DisplayEvent)
}

// EmitDispatch fires OnDispatch if set.
func (h Hooks) EmitDispatch(ctx context.Context, e *DispatchEvent) {
	if h.OnDispatch != nil {
		h.OnDispatch(ctx, e)
	}
}

// EmitDisplay fires OnDisplay if set.
func (h Hooks) EmitDisplay(ctx context.Context, e *DisplayEvent) {
	if h.OnDisplay != nil {
		h.OnDisplay(ctx, e)
	}
}

// Merge returns hooks that call h then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnDispatch: func(ctx context.Context, e *DispatchEvent) {
			h.EmitDispatch(ctx, e)
			other.EmitDispatch(ctx, e)
		},
		OnDisplay: func(ctx context.Context, e *DisplayEvent) {
			h.EmitDisplay(ctx, e)
			other.EmitDisplay(ctx, e)
		},
	}
}
