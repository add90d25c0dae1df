package goal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTimeService is returned when a goal with a time window is evaluated
// without an Instant to check it against.
var ErrNoTimeService = errors.New("goal has a time window but no time service was provided")

// EvalError reports a predicate or terminal failure during evaluation. Goal
// is the innermost goal whose predicate or terminal failed.
type EvalError struct {
	Goal *Goal
	// Op is what failed: "fulfilled" or "terminal <name>".
	Op  string
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("goal %s: %s: %v", e.Goal.Info(), e.Op, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluate performs one depth-first pass over g and its descendants, returning
// the first action produced, or nil if none was.
//
// The pass records a trace of every goal and terminal visited, stored as the
// last trace when non-empty. Predicate and terminal errors stop the pass and
// are returned as *EvalError; they are not recorded against any goal, which
// is left to the caller.
func (g *Goal) Evaluate(agent Agent, now Instant) (Action, error) {
	if g.debug {
		g.log().Info("[Goal] GOAL desc: " + g.Info())
	}
	action, trace, err := g.evaluate(agent, now, 0, "")
	if trace != "" {
		g.lastTrace = trace
	}
	return action, err
}

func (g *Goal) evaluate(agent Agent, now Instant, depth int, trace string) (Action, string, error) {
	if g.irrelevant {
		return nil, trace, nil
	}

	if g.window != nil {
		if now == nil {
			return nil, trace, fmt.Errorf("%s: %w", g.Info(), ErrNoTimeService)
		}
		if !now.IsNow(g.window) {
			return nil, trace, nil
		}
	}

	g.debugf(depth, "GOAL: bef fulfilled: %s %v", g.description, g.fulfilled)
	done, err := g.fulfilled.Check(agent)
	if err != nil {
		return nil, trace, &EvalError{Goal: g, Op: "fulfilled", Err: err}
	}
	if done {
		g.fulfillment = Fulfilled
		g.debugf(depth, "GOAL: is fulfilled: %s %v", g.description, g.fulfilled)
		return nil, trace, nil
	}
	g.fulfillment = NotFulfilled
	g.debugf(depth, "GOAL: is not fulfilled: %s %v", g.description, g.fulfilled)

	trace += "." + g.Info()

	// Index-based so that pruning shifts the next sibling into i without
	// skipping it, and children appended during the pass are still visited.
	for i := 0; i < len(g.children); {
		child := g.children[i]
		switch child.kind {
		case childTerminal:
			t := child.terminal
			g.debugf(depth, "GOAL: bef function: %s()", t.Name())
			action, err := t.Invoke(agent)
			trace += "." + t.Name() + "()"
			if err != nil {
				return nil, trace, &EvalError{Goal: g, Op: "terminal " + t.Name(), Err: err}
			}
			g.debugf(depth, "GOAL: aft function: %s() %v", t.Name(), action)
			if action != nil {
				return action, trace, nil
			}

		case childGoal:
			sg := child.goal
			g.debugf(depth, "GOAL: bef sg: %s", sg.description)
			if sg.irrelevant {
				g.children = append(g.children[:i], g.children[i+1:]...)
				continue
			}
			action, next, err := sg.evaluate(agent, now, depth+1, trace)
			trace = next
			if err != nil {
				return nil, trace, err
			}
			g.debugf(depth, "GOAL: aft sg: %s, Result: %v", sg.description, action)
			if action != nil {
				return action, trace, nil
			}
		}
		i++
	}

	return nil, trace, nil
}

// debugf logs one evaluation step. The goal's own debug flag is the only
// gate, so the records are written at info level.
func (g *Goal) debugf(depth int, format string, args ...any) {
	if !g.debug {
		return
	}
	g.log().Info(strings.Repeat("\t", depth) + fmt.Sprintf(format, args...))
}
