package domain

// Tool is an opaque tool descriptor scoped to a state.
// The editor never interprets its contents.
type Tool map[string]any

// Edge is an outgoing transition of a State.
type Edge struct {
	TargetStateName string `json:"target_state_name" yaml:"target_state_name" mapstructure:"target_state_name"`

	// Description is the natural-language condition for taking this transition.
	Description string `json:"description" yaml:"description" mapstructure:"description"`

	SpeakDuringTransition bool `json:"speak_during_transition" yaml:"speak_during_transition" mapstructure:"speak_during_transition"`
}

// State is a named conversation node.
// Name is the join key used by edges of other states.
type State struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	Prompt string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Tools  []Tool `json:"tools" yaml:"tools" mapstructure:"tools"`
	Edges  []Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// Definition is the canonical, persisted State-Machine Definition.
type Definition struct {
	States        []State `json:"states" yaml:"states" mapstructure:"states"`
	StartingState string  `json:"starting_state" yaml:"starting_state" mapstructure:"starting_state"`
}

// State returns the state with the given name.
func (d *Definition) State(name string) (State, bool) {
	if d == nil {
		return State{}, false
	}
	for _, s := range d.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

// Names returns the state names in document order.
func (d *Definition) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.States))
	for _, s := range d.States {
		names = append(names, s.Name)
	}
	return names
}

// Clone returns a deep copy of the definition.
// Tool descriptors are copied one level deep.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := &Definition{StartingState: d.StartingState}
	if d.States != nil {
		out.States = make([]State, len(d.States))
		for i, s := range d.States {
			out.States[i] = s.Clone()
		}
	}
	return out
}

// Clone returns a copy of the state that shares no slices with the original.
func (s State) Clone() State {
	out := s
	out.Tools = CloneTools(s.Tools)
	if s.Edges != nil {
		out.Edges = make([]Edge, len(s.Edges))
		copy(out.Edges, s.Edges)
	}
	return out
}

// CloneTools copies a tool list, preserving nil.
func CloneTools(tools []Tool) []Tool {
	if tools == nil {
		return nil
	}
	out := make([]Tool, len(tools))
	for i, t := range tools {
		if t == nil {
			continue
		}
		c := make(Tool, len(t))
		for k, v := range t {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// DefaultStateName is the name of the single state of a fresh definition.
const DefaultStateName = "N1"

// DefaultDefinition returns the definition used when an agent has none stored:
// a single, empty starting state.
func DefaultDefinition() *Definition {
	return &Definition{
		States:        []State{{Name: DefaultStateName, Edges: []Edge{}}},
		StartingState: DefaultStateName,
	}
}
