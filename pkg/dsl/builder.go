package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Builder manages the definition construction.
type Builder struct {
	states []*StateBuilder
	index  map[string]*StateBuilder
	start  string
}

// New creates a new definition builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*StateBuilder),
	}
}

// Add creates a new state in the definition, in call order.
// If the state already exists, it returns the existing builder.
func (b *Builder) Add(name string) *StateBuilder {
	if sb, ok := b.index[name]; ok {
		return sb
	}
	sb := &StateBuilder{
		state: domain.State{
			Name:  name,
			Edges: []domain.Edge{},
		},
		builder: b,
	}
	b.states = append(b.states, sb)
	b.index[name] = sb
	return sb
}

// Start designates the starting state. Without it, the first added state starts.
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Build compiles the definition, checking that every transition and the starting
// state reference declared states.
func (b *Builder) Build() (*domain.Definition, error) {
	def := &domain.Definition{
		States:        make([]domain.State, 0, len(b.states)),
		StartingState: b.start,
	}

	var errs []error
	for _, sb := range b.states {
		state := sb.Build()
		for _, e := range state.Edges {
			if _, ok := b.index[e.TargetStateName]; !ok {
				errs = append(errs, fmt.Errorf("state %q: transition to %q: %w", state.Name, e.TargetStateName, domain.ErrStateNotFound))
			}
		}
		def.States = append(def.States, state)
	}

	if def.StartingState == "" && len(def.States) > 0 {
		def.StartingState = def.States[0].Name
	}
	if def.StartingState != "" {
		if _, ok := b.index[def.StartingState]; !ok {
			errs = append(errs, fmt.Errorf("starting state %q: %w", def.StartingState, domain.ErrStateNotFound))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return def, nil
}

// MustBuild is like Build but panics on error. Intended for tests and fixtures.
func (b *Builder) MustBuild() *domain.Definition {
	def, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("dsl: %v", err))
	}
	return def
}
