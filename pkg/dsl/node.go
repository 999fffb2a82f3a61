package dsl

import "github.com/aretw0/switchboard/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state   domain.State
	builder *Builder
}

// Prompt sets the instructions the agent follows in this state.
func (s *StateBuilder) Prompt(text string) *StateBuilder {
	s.state.Prompt = text
	return s
}

// Tools appends tool descriptors scoped to this state.
func (s *StateBuilder) Tools(tools ...domain.Tool) *StateBuilder {
	s.state.Tools = append(s.state.Tools, tools...)
	return s
}

// Go adds a transition to the target state without a condition description.
func (s *StateBuilder) Go(target string) *StateBuilder {
	return s.When("", target)
}

// When adds a transition taken when the described condition holds.
func (s *StateBuilder) When(description, target string) *StateBuilder {
	s.state.Edges = append(s.state.Edges, domain.Edge{
		TargetStateName: target,
		Description:     description,
	})
	return s
}

// Say adds a transition during which the agent keeps speaking.
func (s *StateBuilder) Say(description, target string) *StateBuilder {
	s.state.Edges = append(s.state.Edges, domain.Edge{
		TargetStateName:       target,
		Description:           description,
		SpeakDuringTransition: true,
	})
	return s
}

// Add starts another state on the same builder, for chaining.
func (s *StateBuilder) Add(name string) *StateBuilder {
	return s.builder.Add(name)
}

// Build returns the underlying domain.State.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StateBuilder) Build() domain.State {
	return s.state.Clone()
}
