package domain

import (
	"context"
	"testing"
)

func TestChainHooks(t *testing.T) {
	var calls []string
	first := LifecycleHooks{
		OnOpen:    func(context.Context, *SessionEvent) { calls = append(calls, "open-1") },
		OnCommand: func(context.Context, *CommandEvent) { calls = append(calls, "cmd-1") },
	}
	second := LifecycleHooks{
		OnOpen: func(context.Context, *SessionEvent) { calls = append(calls, "open-2") },
		OnSave: func(context.Context, *SessionEvent) { calls = append(calls, "save-2") },
	}

	hooks := ChainHooks(first, LifecycleHooks{}, second)
	ctx := context.Background()
	hooks.OnOpen(ctx, &SessionEvent{})
	hooks.OnCommand(ctx, &CommandEvent{})
	hooks.OnSave(ctx, &SessionEvent{})

	want := []string{"open-1", "open-2", "cmd-1", "save-2"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
	if hooks.OnDiscard != nil {
		t.Error("OnDiscard should stay nil when no set provides it")
	}
}
