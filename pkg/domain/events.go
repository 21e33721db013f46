package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEdit    EventType = "edit"
	EventCommit  EventType = "commit"
	EventReject  EventType = "reject"
	EventDiscard EventType = "discard"
	EventGraph   EventType = "graph_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ReconcileEvent reports one step of a node's edit cycle.
type ReconcileEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	Sequence uint64 `json:"sequence"`
	// Errors is the number of validation errors (reject only).
	Errors int `json:"errors,omitempty"`
}

// GraphEvent reports a recomputation of the edge set.
type GraphEvent struct {
	EventBase
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnEdit        func(context.Context, *ReconcileEvent)
	OnCommit      func(context.Context, *ReconcileEvent)
	OnReject      func(context.Context, *ReconcileEvent)
	OnDiscard     func(context.Context, *ReconcileEvent)
	OnGraphChange func(context.Context, *GraphEvent)
}
