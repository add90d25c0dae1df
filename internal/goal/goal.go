package goal

import (
	"log/slog"
)

// Agent is the acting entity passed to predicates and terminals. It is opaque
// to this package; see VariableSource and Snapshotter for the optional views
// used by the built-in predicates.
type Agent = any

// Action is whatever a terminal produces. A nil Action means "no action".
type Action = any

// Instant is the current simulation time, as seen by a goal. It decides
// whether a goal's time window applies.
type Instant interface {
	IsNow(window any) bool
}

// Fulfillment is the tri-state outcome of the most recent fulfillment check.
type Fulfillment int8

const (
	// Unevaluated means the goal has not been checked yet.
	Unevaluated Fulfillment = iota
	// NotFulfilled means the last check found the goal unsatisfied.
	NotFulfilled
	// Fulfilled means the last check found the goal satisfied.
	Fulfilled
)

// String implements fmt.Stringer.
func (f Fulfillment) String() string {
	switch f {
	case NotFulfilled:
		return "false"
	case Fulfilled:
		return "true"
	default:
		return "unevaluated"
	}
}

// MarshalJSON encodes the state as null, false or true.
func (f Fulfillment) MarshalJSON() ([]byte, error) {
	switch f {
	case NotFulfilled:
		return []byte("false"), nil
	case Fulfilled:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

// Field is a goal-specific attribute exposed through Info and Report.
type Field struct {
	Name  string
	Value func() any
}

// Goal is a node in an agent's goal tree.
//
// A Goal is not safe for concurrent use. Each tree has exactly one owner,
// which evaluates it sequentially.
type Goal struct {
	description string
	typeName    string
	fulfilled   Predicate
	validity    Predicate
	window      any
	children    []Child
	fields      []Field
	debug       bool
	logger      *slog.Logger

	fulfillment Fulfillment
	irrelevant  bool
	errorCount  int
	lastError   string
	lastTrace   string
}

// Option configures a Goal at construction.
type Option func(g *Goal)

// WithType sets the type name used when rendering the goal.
func WithType(name string) Option {
	return func(g *Goal) {
		if name != "" {
			g.typeName = name
		}
	}
}

// WithFulfilled sets the predicate deciding whether the goal is already
// satisfied. A nil predicate leaves the default (Never).
func WithFulfilled(p Predicate) Option {
	return func(g *Goal) {
		if p != nil {
			g.fulfilled = p
		}
	}
}

// WithValidity sets the predicate deciding whether the goal is still
// meaningful. A nil predicate leaves the default (Always).
func WithValidity(p Predicate) Option {
	return func(g *Goal) {
		if p != nil {
			g.validity = p
		}
	}
}

// WithTimeWindow restricts evaluation to instants within window.
func WithTimeWindow(window any) Option {
	return func(g *Goal) {
		g.window = window
	}
}

// WithChildren appends children in order. Zero-valued children are dropped.
func WithChildren(children ...Child) Option {
	return func(g *Goal) {
		for _, c := range children {
			g.AddChild(c)
		}
	}
}

// WithSubgoals appends nested goals in order. Nil goals are dropped.
func WithSubgoals(subgoals ...*Goal) Option {
	return func(g *Goal) {
		for _, sg := range subgoals {
			g.AddChild(SubGoal(sg))
		}
	}
}

// WithField declares an extra field, rendered in Info and Report.
func WithField(name string, value func() any) Option {
	return func(g *Goal) {
		if value != nil {
			g.fields = append(g.fields, Field{Name: name, Value: value})
		}
	}
}

// WithDebug enables per-step trace logging during evaluation. The trace is
// written at info level to the goal's logger.
func WithDebug(enabled bool) Option {
	return func(g *Goal) {
		g.debug = enabled
	}
}

// WithLogger sets the logger used for trace output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Goal) {
		g.logger = logger
	}
}

// New creates a goal with the given description.
func New(description string, opts ...Option) *Goal {
	g := &Goal{
		description: description,
		typeName:    "Goal",
		fulfilled:   Never,
		validity:    Always,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Description returns the human-readable label.
func (g *Goal) Description() string { return g.description }

// TypeName returns the name used when rendering the goal.
func (g *Goal) TypeName() string { return g.typeName }

// TimeWindow returns the window set with WithTimeWindow, or nil.
func (g *Goal) TimeWindow() any { return g.window }

// Fields returns the declared extra fields.
func (g *Goal) Fields() []Field { return g.fields }

// Debug reports whether debug output is enabled.
func (g *Goal) Debug() bool { return g.debug }

// Fulfillment returns the outcome of the most recent fulfillment check.
func (g *Goal) Fulfillment() Fulfillment { return g.fulfillment }

// Irrelevant reports whether the goal has been marked irrelevant.
func (g *Goal) Irrelevant() bool { return g.irrelevant }

// SetIrrelevant marks (or unmarks) the goal as irrelevant. An irrelevant goal
// is skipped, and pruned by its parent on the parent's next pass.
func (g *Goal) SetIrrelevant(irrelevant bool) { g.irrelevant = irrelevant }

// ErrorCount returns the number of errors recorded against this goal.
func (g *Goal) ErrorCount() int { return g.errorCount }

// LastError returns the most recently recorded error message.
func (g *Goal) LastError() string { return g.lastError }

// RecordError increments the error count and stores msg as the last error,
// returning the new count.
func (g *Goal) RecordError(msg string) int {
	if msg == "" {
		msg = "unknown error"
	}
	g.errorCount++
	g.lastError = msg
	return g.errorCount
}

// ResetErrors clears the error count and last error.
func (g *Goal) ResetErrors() {
	g.errorCount = 0
	g.lastError = ""
}

// LastTrace returns the trace of the most recent pass that visited at least
// one goal, or "".
func (g *Goal) LastTrace() string { return g.lastTrace }

// Children returns a copy of the child list.
func (g *Goal) Children() []Child {
	out := make([]Child, len(g.children))
	copy(out, g.children)
	return out
}

// Subgoals returns the nested goals among the children, in order.
func (g *Goal) Subgoals() []*Goal {
	var out []*Goal
	for _, c := range g.children {
		if sg := c.Goal(); sg != nil {
			out = append(out, sg)
		}
	}
	return out
}

// AddChild appends a child, returning false if it was empty.
func (g *Goal) AddChild(c Child) bool {
	if c.IsZero() {
		return false
	}
	g.children = append(g.children, c)
	return true
}

// IsValid reports whether the goal is still meaningful, as judged by its
// validity predicate. It has no side effects.
func (g *Goal) IsValid(agent Agent) (bool, error) {
	return g.validity.Check(agent)
}

// TriggeringGoals returns every nested goal below g, depth-first in child
// order.
func (g *Goal) TriggeringGoals() []*Goal {
	var out []*Goal
	for _, c := range g.children {
		sg := c.Goal()
		if sg == nil {
			continue
		}
		out = append(out, sg)
		out = append(out, sg.TriggeringGoals()...)
	}
	return out
}

func (g *Goal) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
