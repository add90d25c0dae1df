package goal

import (
	"fmt"
)

// mapAgent is a minimal agent backed by a map.
type mapAgent map[string]any

func (a mapAgent) Snapshot() map[string]any { return a }

func (a mapAgent) Variable(key any) (any, error) {
	s, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
	return a[s], nil
}

// windowInstant treats any window listed in active as now.
type windowInstant struct {
	active map[any]bool
}

func instantOf(windows ...any) windowInstant {
	w := windowInstant{active: make(map[any]bool)}
	for _, v := range windows {
		w.active[v] = true
	}
	return w
}

func (w windowInstant) IsNow(window any) bool { return w.active[window] }

func fulfilledWhen(done bool) Option {
	return WithFulfilled(PredicateFunc(func(Agent) (bool, error) { return done, nil }))
}

func alwaysNone(Agent) (Action, error) { return nil, nil }

func alwaysAction(v any) func(Agent) (Action, error) {
	return func(Agent) (Action, error) { return v, nil }
}

// countingTerminal records how many times it was invoked.
type countingTerminal struct {
	name   string
	action Action
	calls  int
}

func (t *countingTerminal) Name() string { return t.name }

func (t *countingTerminal) Invoke(Agent) (Action, error) {
	t.calls++
	return t.action, nil
}
