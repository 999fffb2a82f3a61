package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	// 1. Build the definition using DSL
	b := New()

	b.Add("greeting").
		Prompt("Greet the caller.").
		When("caller asks about billing", "billing").
		Add("billing").
		Prompt("Explain the invoice.").
		Tools(domain.Tool{"type": "end_call"}).
		Say("caller is done", "goodbye")

	b.Add("goodbye").
		Prompt("Say goodbye.")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify structure
	if def.StartingState != "greeting" {
		t.Errorf("Expected starting state 'greeting', got '%s'", def.StartingState)
	}
	if len(def.States) != 3 {
		t.Fatalf("Expected 3 states, got %d", len(def.States))
	}
	if got := def.Names(); got[0] != "greeting" || got[1] != "billing" || got[2] != "goodbye" {
		t.Errorf("States out of order: %v", got)
	}

	billing := def.States[1]
	if billing.Prompt != "Explain the invoice." {
		t.Errorf("Unexpected prompt %q", billing.Prompt)
	}
	if len(billing.Tools) != 1 || billing.Tools[0]["type"] != "end_call" {
		t.Errorf("Unexpected tools %v", billing.Tools)
	}
	if len(billing.Edges) != 1 || !billing.Edges[0].SpeakDuringTransition {
		t.Errorf("Expected a speaking transition, got %v", billing.Edges)
	}
	if def.States[2].Edges == nil {
		t.Error("States without transitions should have an empty, non-nil edge list")
	}
}

func TestBuilder_ExplicitStart(t *testing.T) {
	b := New()
	b.Add("a").Go("b")
	b.Add("b")

	def, err := b.Start("b").Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if def.StartingState != "b" {
		t.Errorf("Expected starting state 'b', got '%s'", def.StartingState)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	b.Add("a").Prompt("one")
	b.Add("a").Go("a")

	def := b.MustBuild()
	if len(def.States) != 1 {
		t.Fatalf("Expected 1 state, got %d", len(def.States))
	}
	if def.States[0].Prompt != "one" || len(def.States[0].Edges) != 1 {
		t.Errorf("Expected both calls to configure the same state, got %+v", def.States[0])
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := New()
	b.Add("a").Go("ghost")

	_, err := b.Start("nowhere").Build()
	if !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("Expected ErrStateNotFound, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustBuild should panic on an invalid definition")
		}
	}()
	b.MustBuild()
}

func TestBuilder_Empty(t *testing.T) {
	def, err := New().Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(def.States) != 0 || def.StartingState != "" {
		t.Errorf("Expected an empty definition, got %+v", def)
	}
}
