package goal

import (
	"fmt"
)

type childKind uint8

const (
	childNone childKind = iota
	childGoal
	childTerminal
)

// Terminal is a leaf capability that may produce an action.
type Terminal interface {
	// Name identifies the terminal in traces and debug output.
	Name() string
	// Invoke returns the action to take, or nil for no action.
	Invoke(agent Agent) (Action, error)
}

// TerminalFunc adapts a function to a named Terminal.
type TerminalFunc struct {
	name string
	fn   func(agent Agent) (Action, error)
}

var _ Terminal = (*TerminalFunc)(nil)

// NewTerminalFunc creates a Terminal named name backed by fn.
func NewTerminalFunc(name string, fn func(agent Agent) (Action, error)) *TerminalFunc {
	return &TerminalFunc{name: name, fn: fn}
}

// Name implements Terminal.Name.
func (t *TerminalFunc) Name() string { return t.name }

// Invoke implements Terminal.Invoke. A nil function produces no action.
func (t *TerminalFunc) Invoke(agent Agent) (Action, error) {
	if t.fn == nil {
		return nil, nil
	}
	return t.fn(agent)
}

// Child is one entry in a goal's child list: either a nested goal or a
// terminal. The kind is fixed when the Child is built.
type Child struct {
	kind     childKind
	goal     *Goal
	terminal Terminal
}

// SubGoal wraps a nested goal. A nil goal yields the zero Child.
func SubGoal(g *Goal) Child {
	if g == nil {
		return Child{}
	}
	return Child{kind: childGoal, goal: g}
}

// Do wraps a terminal. A nil terminal yields the zero Child.
func Do(t Terminal) Child {
	if t == nil {
		return Child{}
	}
	return Child{kind: childTerminal, terminal: t}
}

// Func wraps fn as a terminal named name.
func Func(name string, fn func(agent Agent) (Action, error)) Child {
	if fn == nil {
		return Child{}
	}
	return Do(NewTerminalFunc(name, fn))
}

// IsZero reports whether the child holds nothing.
func (c Child) IsZero() bool { return c.kind == childNone }

// Goal returns the nested goal, or nil for terminals.
func (c Child) Goal() *Goal {
	if c.kind != childGoal {
		return nil
	}
	return c.goal
}

// Terminal returns the terminal, or nil for nested goals.
func (c Child) Terminal() Terminal {
	if c.kind != childTerminal {
		return nil
	}
	return c.terminal
}

// String implements fmt.Stringer.
func (c Child) String() string {
	switch c.kind {
	case childGoal:
		return c.goal.Info()
	case childTerminal:
		return c.terminal.Name() + "()"
	default:
		return "<nil>"
	}
}

// GoString implements fmt.GoStringer.
func (c Child) GoString() string {
	return fmt.Sprintf("goal.Child(%s)", c.String())
}
