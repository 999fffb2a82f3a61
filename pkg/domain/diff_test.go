package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	base := &Definition{
		StartingState: "greeting",
		States: []State{
			{Name: "greeting", Prompt: "Say hi", Edges: []Edge{{TargetStateName: "billing", Description: "asks about billing"}}},
			{Name: "billing", Prompt: "Explain invoices", Edges: []Edge{}},
		},
	}

	tests := []struct {
		name     string
		old      *Definition
		new      *Definition
		wantDiff *DefinitionDiff // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  base,
			wantDiff: &DefinitionDiff{
				Added:         []string{"greeting", "billing"},
				StartingState: &[]string{"greeting"}[0],
			},
		},
		{
			name:     "No Changes",
			old:      base,
			new:      base.Clone(),
			wantDiff: nil,
		},
		{
			name: "Prompt Modified",
			old:  base,
			new: func() *Definition {
				d := base.Clone()
				d.States[1].Prompt = "Explain refunds"
				return d
			}(),
			wantDiff: &DefinitionDiff{Modified: []string{"billing"}},
		},
		{
			name: "Edge Modified",
			old:  base,
			new: func() *Definition {
				d := base.Clone()
				d.States[0].Edges[0].SpeakDuringTransition = true
				return d
			}(),
			wantDiff: &DefinitionDiff{Modified: []string{"greeting"}},
		},
		{
			name: "Rename Shows As Remove And Add",
			old:  base,
			new: &Definition{
				StartingState: "hello",
				States: []State{
					{Name: "hello", Prompt: "Say hi", Edges: []Edge{{TargetStateName: "billing", Description: "asks about billing"}}},
					{Name: "billing", Prompt: "Explain invoices", Edges: []Edge{}},
				},
			},
			wantDiff: &DefinitionDiff{
				Added:         []string{"hello"},
				Removed:       []string{"greeting"},
				StartingState: &[]string{"hello"}[0],
			},
		},
		{
			name:     "Nil And Empty Edge Lists Are Equal",
			old:      &Definition{States: []State{{Name: "a"}}, StartingState: "a"},
			new:      &Definition{States: []State{{Name: "a", Edges: []Edge{}, Tools: []Tool{}}}, StartingState: "a"},
			wantDiff: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got.Added, tt.wantDiff.Added) {
				t.Errorf("Diff().Added = %v, want %v", got.Added, tt.wantDiff.Added)
			}
			if !reflect.DeepEqual(got.Removed, tt.wantDiff.Removed) {
				t.Errorf("Diff().Removed = %v, want %v", got.Removed, tt.wantDiff.Removed)
			}
			if !reflect.DeepEqual(got.Modified, tt.wantDiff.Modified) {
				t.Errorf("Diff().Modified = %v, want %v", got.Modified, tt.wantDiff.Modified)
			}
			if !equalPtr(got.StartingState, tt.wantDiff.StartingState) {
				t.Errorf("Diff().StartingState = %v, want %v", got.StartingState, tt.wantDiff.StartingState)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	old := &Definition{States: []State{{Name: "a"}}, StartingState: "a"}
	updated := &Definition{States: []State{{Name: "a", Prompt: "changed"}}, StartingState: "a"}

	diff := Diff(old, updated)
	if diff == nil {
		t.Fatal("Expected diff, got nil")
	}

	bytes, _ := json.Marshal(diff)
	if strings.Contains(string(bytes), `"added"`) {
		t.Errorf("JSON should not contain 'added' when empty, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"modified":["a"]`) {
		t.Errorf("JSON should list the modified state, got: %s", string(bytes))
	}
}

func TestDefinitionClone(t *testing.T) {
	orig := &Definition{
		StartingState: "a",
		States: []State{
			{Name: "a", Tools: []Tool{{"name": "lookup"}}, Edges: []Edge{{TargetStateName: "a"}}},
		},
	}

	c := orig.Clone()
	c.States[0].Tools[0]["name"] = "changed"
	c.States[0].Edges[0].TargetStateName = "b"
	c.States[0].Name = "z"

	if orig.States[0].Tools[0]["name"] != "lookup" {
		t.Error("Clone shares tool descriptors with the original")
	}
	if orig.States[0].Edges[0].TargetStateName != "a" {
		t.Error("Clone shares edges with the original")
	}
	if orig.States[0].Name != "a" {
		t.Error("Clone shares states with the original")
	}
	if CloneTools(nil) != nil {
		t.Error("CloneTools(nil) should stay nil")
	}
}

func TestDefinitionLookup(t *testing.T) {
	d := &Definition{States: []State{{Name: "a"}, {Name: "b"}}}

	if _, ok := d.State("b"); !ok {
		t.Error("State(b) not found")
	}
	if _, ok := d.State("c"); ok {
		t.Error("State(c) should not be found")
	}
	if got := d.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}

	var nilDef *Definition
	if _, ok := nilDef.State("a"); ok {
		t.Error("nil definition has no states")
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func TestDefaultDefinition(t *testing.T) {
	def := DefaultDefinition()
	if len(def.States) != 1 {
		t.Fatalf("expected 1 state, got %d", len(def.States))
	}
	if def.StartingState != DefaultStateName || def.States[0].Name != DefaultStateName {
		t.Errorf("unexpected default definition %+v", def)
	}
	if def.States[0].Edges == nil {
		t.Error("default state should have an empty, non-nil edge list")
	}
	if DefaultDefinition() == def {
		t.Error("each call should return a fresh definition")
	}
}
