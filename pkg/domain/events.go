package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionOpen    EventType = "session_open"
	EventSessionSave    EventType = "session_save"
	EventSessionDiscard EventType = "session_discard"
	EventCommand        EventType = "command"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	AgentID   string    `json:"agent_id"`
}

// SessionEvent represents a lifecycle change of an editor session.
type SessionEvent struct {
	EventBase
	States   int             `json:"states"`
	Edges    int             `json:"edges"`
	Duration time.Duration   `json:"duration,omitempty"`
	Diff     *DefinitionDiff `json:"diff,omitempty"`
}

// CommandEvent represents one applied or rejected edit command.
type CommandEvent struct {
	EventBase
	Op    string `json:"op"`
	Error string `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnOpen    func(context.Context, *SessionEvent)
	OnSave    func(context.Context, *SessionEvent)
	OnDiscard func(context.Context, *SessionEvent)
	OnCommand func(context.Context, *CommandEvent)
}

// ChainHooks combines several hook sets; each callback runs in the given order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnOpen = chainSession(out.OnOpen, h.OnOpen)
		out.OnSave = chainSession(out.OnSave, h.OnSave)
		out.OnDiscard = chainSession(out.OnDiscard, h.OnDiscard)
		out.OnCommand = chainCommand(out.OnCommand, h.OnCommand)
	}
	return out
}

func chainSession(a, b func(context.Context, *SessionEvent)) func(context.Context, *SessionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SessionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainCommand(a, b func(context.Context, *CommandEvent)) func(context.Context, *CommandEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *CommandEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
