package goal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Predicate is a boolean check against an agent.
type Predicate interface {
	Check(agent Agent) (bool, error)
}

// VariableSource is implemented by agents whose state can be read one
// variable at a time. It matches the Variable method of a go-pabt state.
type VariableSource interface {
	Variable(key any) (any, error)
}

// Snapshotter is implemented by agents that can expose their state as a map.
// Expression predicates use it to build their environment.
type Snapshotter interface {
	Snapshot() map[string]any
}

type constPredicate bool

func (p constPredicate) Check(Agent) (bool, error) { return bool(p), nil }

func (p constPredicate) String() string {
	if p {
		return "Always"
	}
	return "Never"
}

const (
	// Never is the default fulfillment predicate: a goal is never already done.
	Never = constPredicate(false)
	// Always is the default validity predicate: a goal is always meaningful.
	Always = constPredicate(true)
)

// PredicateFunc adapts a function to a Predicate.
type PredicateFunc func(agent Agent) (bool, error)

// Check implements Predicate.Check.
func (f PredicateFunc) Check(agent Agent) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(agent)
}

// ExprEnvAgentKey is the environment key holding the agent itself.
const ExprEnvAgentKey = "agent"

// ExprPredicate evaluates an expr-lang expression against the agent.
//
// The environment contains the agent's snapshot (if it implements
// Snapshotter), flattened to the top level, plus the agent under "agent".
// The expression must produce a bool.
type ExprPredicate struct {
	expression string
	logger     *slog.Logger

	mu      sync.Mutex
	program *vm.Program
}

var _ Predicate = (*ExprPredicate)(nil)

// NewExprPredicate compiles expression, returning an error if it is invalid.
func NewExprPredicate(expression string) (*ExprPredicate, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression cannot be empty")
	}
	p := &ExprPredicate{expression: expression}
	if _, err := p.getOrCompileProgram(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLogger sets the logger used to report bad results. Defaults to
// slog.Default().
func (p *ExprPredicate) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

func (p *ExprPredicate) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Expression returns the source expression.
func (p *ExprPredicate) Expression() string { return p.expression }

// String implements fmt.Stringer.
func (p *ExprPredicate) String() string { return p.expression }

// Check implements Predicate.Check.
func (p *ExprPredicate) Check(agent Agent) (bool, error) {
	program, err := p.getOrCompileProgram()
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, exprEnv(agent))
	if err != nil {
		return false, fmt.Errorf("expression %q evaluation failed: %w", p.expression, err)
	}

	b, ok := result.(bool)
	if !ok {
		p.log().Warn("[Goal] expression produced non-boolean result",
			"expression", p.expression,
			"resultType", fmt.Sprintf("%T", result))
		return false, fmt.Errorf("expression %q returned non-boolean result: %T", p.expression, result)
	}
	return b, nil
}

func (p *ExprPredicate) getOrCompileProgram() (*vm.Program, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.program != nil {
		return p.program, nil
	}
	if cached, ok := exprCache.Get(p.expression); ok {
		p.program = cached
		return cached, nil
	}
	program, err := expr.Compile(p.expression)
	if err != nil {
		return nil, fmt.Errorf("expression %q compilation failed: %w", p.expression, err)
	}
	exprCache.Add(p.expression, program)
	p.program = program
	return program, nil
}

func exprEnv(agent Agent) map[string]any {
	var env map[string]any
	if s, ok := agent.(Snapshotter); ok {
		snapshot := s.Snapshot()
		env = make(map[string]any, len(snapshot)+1)
		for k, v := range snapshot {
			env[k] = v
		}
	} else {
		env = make(map[string]any, 1)
	}
	env[ExprEnvAgentKey] = agent
	return env
}

// ConditionPredicate is satisfied when every condition matches the agent's
// current value for the condition's key. The agent must implement
// VariableSource.
type ConditionPredicate struct {
	conditions pabtpkg.IConditions
}

var _ Predicate = (*ConditionPredicate)(nil)

// NewConditionPredicate creates a predicate that ANDs conditions. With no
// conditions it is always satisfied.
func NewConditionPredicate(conditions ...pabtpkg.Condition) *ConditionPredicate {
	return &ConditionPredicate{conditions: conditions}
}

// Conditions returns the conditions checked by the predicate.
func (p *ConditionPredicate) Conditions() pabtpkg.IConditions { return p.conditions }

// Check implements Predicate.Check.
func (p *ConditionPredicate) Check(agent Agent) (bool, error) {
	if len(p.conditions) == 0 {
		return true, nil
	}
	source, ok := agent.(VariableSource)
	if !ok {
		return false, fmt.Errorf("agent %T does not expose variables", agent)
	}
	for _, cond := range p.conditions {
		if cond == nil {
			continue
		}
		value, err := source.Variable(cond.Key())
		if err != nil {
			return false, fmt.Errorf("variable %v: %w", cond.Key(), err)
		}
		if !cond.Match(value) {
			return false, nil
		}
	}
	return true, nil
}
