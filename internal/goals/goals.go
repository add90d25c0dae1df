// Package goals provides the built-in goal types that can be built from
// declarative descriptions.
package goals

import (
	"fmt"

	"github.com/joeycumines/goaltree/internal/goal"
	"github.com/joeycumines/goaltree/internal/simtime"
)

// Type identifiers of the built-in goals.
const (
	TypeGoal   = "goals.Goal"
	TypeEnsure = "goals.Ensure"
	TypeScript = "goals.Script"
)

// Register installs the built-in goal types into r.
func Register(r *goal.Registry) error {
	for typeID, factory := range map[string]goal.FactoryFunc{
		TypeGoal:   NewGoal,
		TypeEnsure: NewEnsure,
		TypeScript: NewScript,
	} {
		if err := r.Register(typeID, factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with the built-in goal types installed.
func NewRegistry() *goal.Registry {
	r := goal.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

// GoalParams are the parameters of a goals.Goal description.
type GoalParams struct {
	Description string              `mapstructure:"description"`
	Fulfilled   string              `mapstructure:"fulfilled"`
	Validity    string              `mapstructure:"validity"`
	Time        string              `mapstructure:"time"`
	Debug       bool                `mapstructure:"debug"`
	Subgoals    []*goal.Description `mapstructure:"subgoals"`
	Do          []Operation         `mapstructure:"do"`
}

// NewGoal builds a generic declarative goal. Nested subgoals come first, then
// the "do" operations, each as its own terminal.
func NewGoal(r *goal.Registry, p goal.Params) (*goal.Goal, error) {
	var params GoalParams
	if err := goal.Decode(p, &params); err != nil {
		return nil, err
	}

	opts, err := commonOptions(r, params.Fulfilled, params.Validity, params.Time, params.Debug)
	if err != nil {
		return nil, err
	}

	subgoals, err := r.CreateAll(params.Subgoals)
	if err != nil {
		return nil, err
	}
	opts = append(opts, goal.WithSubgoals(subgoals...))

	for i, op := range params.Do {
		if op.Op == "" {
			return nil, fmt.Errorf("do[%d]: op cannot be empty", i)
		}
		opts = append(opts, goal.WithChildren(goal.Do(Emit(op.Op, op.Args))))
	}

	return goal.New(params.Description, opts...), nil
}

// commonOptions builds the options shared by the built-in types. Goals and
// their predicates log to r's logger.
func commonOptions(r *goal.Registry, fulfilled, validity, window string, debug bool) ([]goal.Option, error) {
	logger := r.Logger()
	opts := []goal.Option{goal.WithLogger(logger)}
	if fulfilled != "" {
		p, err := goal.NewExprPredicate(fulfilled)
		if err != nil {
			return nil, fmt.Errorf("fulfilled: %w", err)
		}
		p.SetLogger(logger)
		opts = append(opts, goal.WithFulfilled(p))
	}
	if validity != "" {
		p, err := goal.NewExprPredicate(validity)
		if err != nil {
			return nil, fmt.Errorf("validity: %w", err)
		}
		p.SetLogger(logger)
		opts = append(opts, goal.WithValidity(p))
	}
	if window != "" {
		r, err := simtime.ParseRange(window)
		if err != nil {
			return nil, fmt.Errorf("time: %w", err)
		}
		opts = append(opts, goal.WithTimeWindow(r))
	}
	if debug {
		opts = append(opts, goal.WithDebug(true))
	}
	return opts, nil
}
