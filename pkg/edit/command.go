// Package edit provides the serializable form of the graph edit operations.
//
// HTTP requests, MCP tool calls and CLI scripts all decode into Command values and go
// through the same Apply path, so every surface enforces the same rules.
package edit

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
)

// Op names an edit operation.
type Op string

const (
	OpAddState           Op = "add_state"
	OpDeleteState        Op = "delete_state"
	OpRenameState        Op = "rename_state"
	OpAddTransition      Op = "add_transition"
	OpRemoveTransition   Op = "remove_transition"
	OpRewireTransition   Op = "rewire_transition"
	OpDescribeTransition Op = "describe_transition"
	OpSetSpeak           Op = "set_speak"
	OpSetPrompt          Op = "set_prompt"
	OpSetTools           Op = "set_tools"
	OpDesignateStarting  Op = "designate_starting"
	OpMoveState          Op = "move_state"
)

// Ops lists every supported operation.
var Ops = []Op{
	OpAddState, OpDeleteState, OpRenameState,
	OpAddTransition, OpRemoveTransition, OpRewireTransition, OpDescribeTransition, OpSetSpeak,
	OpSetPrompt, OpSetTools, OpDesignateStarting, OpMoveState,
}

// Command is one edit operation with its arguments.
// Only the fields relevant to Op are read.
type Command struct {
	Op Op `json:"op" yaml:"op" mapstructure:"op"`

	// State is the node the command applies to.
	State   string `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
	NewName string `json:"new_name,omitempty" yaml:"new_name,omitempty" mapstructure:"new_name"`

	Source      string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	Target      string `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Edge        string `json:"edge,omitempty" yaml:"edge,omitempty" mapstructure:"edge"`
	Speak       *bool  `json:"speak,omitempty" yaml:"speak,omitempty" mapstructure:"speak"`

	Prompt   string          `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
	Tools    []domain.Tool   `json:"tools,omitempty" yaml:"tools,omitempty" mapstructure:"tools"`
	Position *graph.Position `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`

	// As labels the state or edge created by this command. Later commands of the
	// same batch refer to it as "$label".
	As string `json:"as,omitempty" yaml:"as,omitempty" mapstructure:"as"`
}

// Outcome reports what a command touched.
type Outcome struct {
	Op    Op           `json:"op"`
	State string       `json:"state,omitempty"`
	Edge  graph.EdgeID `json:"edge,omitempty"`
}

// Apply runs the command against g. A rejected command leaves g unchanged.
func (c Command) Apply(g *graph.Graph) (Outcome, error) {
	out := Outcome{Op: c.Op, State: c.State, Edge: graph.EdgeID(c.Edge)}

	switch c.Op {
	case OpAddState:
		n := g.AddState()
		out.State = n.Name
		return out, nil

	case OpDeleteState:
		return out, g.DeleteState(c.State)

	case OpRenameState:
		if err := g.RenameState(c.State, c.NewName); err != nil {
			return out, err
		}
		out.State = strings.TrimSpace(c.NewName)
		return out, nil

	case OpAddTransition:
		e, err := g.AddTransition(c.Source, c.Target, c.Description)
		if err != nil {
			return out, err
		}
		if c.Speak != nil && *c.Speak {
			// The edge was just created, so this cannot fail.
			_ = g.SetSpeakDuringTransition(e.ID, true)
		}
		out.State = c.Source
		out.Edge = e.ID
		return out, nil

	case OpRemoveTransition:
		return out, g.RemoveTransition(graph.EdgeID(c.Edge))

	case OpRewireTransition:
		return out, g.RewireTransition(graph.EdgeID(c.Edge), c.Source, c.Target)

	case OpDescribeTransition:
		return out, g.SetTransitionDescription(graph.EdgeID(c.Edge), c.Description)

	case OpSetSpeak:
		if c.Speak == nil {
			return out, fmt.Errorf("%s: speak is required: %w", c.Op, domain.ErrInvalidCommand)
		}
		return out, g.SetSpeakDuringTransition(graph.EdgeID(c.Edge), *c.Speak)

	case OpSetPrompt:
		return out, g.SetPrompt(c.State, c.Prompt)

	case OpSetTools:
		return out, g.SetTools(c.State, c.Tools)

	case OpDesignateStarting:
		return out, g.DesignateStarting(c.State)

	case OpMoveState:
		if c.Position == nil {
			return out, fmt.Errorf("%s: position is required: %w", c.Op, domain.ErrInvalidCommand)
		}
		return out, g.MoveState(c.State, *c.Position)

	default:
		return out, fmt.Errorf("%q: %w", c.Op, domain.ErrUnknownOp)
	}
}

// BatchError names the command that stopped a batch.
type BatchError struct {
	Index int // zero-based
	Op    Op
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index+1, e.Op, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Batch applies cmds in order to a clone of g and returns the clone.
// If any command fails, g is returned untouched together with a *BatchError naming
// the failing command.
func Batch(g *graph.Graph, cmds []Command) (*graph.Graph, []Outcome, error) {
	work := g.Clone()
	labels := make(map[string]label)
	outcomes := make([]Outcome, 0, len(cmds))

	for i, cmd := range cmds {
		resolved, err := resolve(work, cmd, labels)
		if err != nil {
			return g, nil, &BatchError{Index: i, Op: cmd.Op, Err: err}
		}
		out, err := resolved.Apply(work)
		if err != nil {
			return g, nil, &BatchError{Index: i, Op: cmd.Op, Err: err}
		}
		if cmd.As != "" {
			switch {
			case out.Edge != "" && cmd.Op == OpAddTransition:
				labels[cmd.As] = label{edge: out.Edge}
			case out.State != "":
				if n, ok := work.Node(out.State); ok {
					labels[cmd.As] = label{node: n.ID}
				}
			}
		}
		outcomes = append(outcomes, out)
	}
	return work, outcomes, nil
}

// label is what "$name" stands for: a node, followed across renames, or an edge.
type label struct {
	node graph.NodeID
	edge graph.EdgeID
}

// resolve replaces "$label" references with the current names and IDs they stand for.
func resolve(g *graph.Graph, cmd Command, labels map[string]label) (Command, error) {
	fields := []*string{&cmd.State, &cmd.NewName, &cmd.Source, &cmd.Target, &cmd.Edge}
	for _, f := range fields {
		if !strings.HasPrefix(*f, "$") {
			continue
		}
		l, ok := labels[strings.TrimPrefix(*f, "$")]
		if !ok {
			return cmd, fmt.Errorf("unknown label %q: %w", *f, domain.ErrInvalidCommand)
		}
		if l.edge != "" {
			*f = string(l.edge)
			continue
		}
		n, ok := g.NodeByID(l.node)
		if !ok {
			return cmd, fmt.Errorf("label %q refers to a deleted state: %w", *f, domain.ErrStateNotFound)
		}
		*f = n.Name
	}
	return cmd, nil
}
