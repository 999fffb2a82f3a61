package domain

import (
	"reflect"
)

// DefinitionDiff represents the changes between two definitions.
// It is designed to be serialized to JSON so a host can confirm what a save changed.
type DefinitionDiff struct {
	// Added lists states present only in the new definition, in its document order.
	Added []string `json:"added,omitempty"`

	// Removed lists states present only in the old definition.
	Removed []string `json:"removed,omitempty"`

	// Modified lists states present in both whose prompt, tools or edges differ.
	Modified []string `json:"modified,omitempty"`

	// StartingState is set when the starting state changed.
	StartingState *string `json:"starting_state,omitempty"`
}

// Diff calculates the difference between oldDef and newDef, matching states by name.
// A renamed state shows up as one removal plus one addition.
// If oldDef is nil, every state of newDef is reported as added.
// It returns nil when nothing changed.
func Diff(oldDef, newDef *Definition) *DefinitionDiff {
	if newDef == nil {
		return nil
	}
	if oldDef == nil {
		oldDef = &Definition{}
	}

	diff := &DefinitionDiff{}

	oldStates := make(map[string]State, len(oldDef.States))
	for _, s := range oldDef.States {
		oldStates[s.Name] = s
	}
	newNames := make(map[string]bool, len(newDef.States))

	for _, s := range newDef.States {
		newNames[s.Name] = true
		old, exists := oldStates[s.Name]
		if !exists {
			diff.Added = append(diff.Added, s.Name)
			continue
		}
		if !sameState(old, s) {
			diff.Modified = append(diff.Modified, s.Name)
		}
	}

	for _, s := range oldDef.States {
		if !newNames[s.Name] {
			diff.Removed = append(diff.Removed, s.Name)
		}
	}

	if oldDef.StartingState != newDef.StartingState {
		start := newDef.StartingState
		diff.StartingState = &start
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func sameState(a, b State) bool {
	if a.Prompt != b.Prompt {
		return false
	}
	if len(a.Tools) != len(b.Tools) || (len(a.Tools) > 0 && !reflect.DeepEqual(a.Tools, b.Tools)) {
		return false
	}
	if len(a.Edges) != len(b.Edges) {
		return false
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any changes.
func (d *DefinitionDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Modified) == 0 &&
		d.StartingState == nil
}
