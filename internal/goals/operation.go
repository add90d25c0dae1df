package goals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joeycumines/goaltree/internal/goal"
)

// Operation is the action produced by the built-in goal types.
type Operation struct {
	Op   string         `json:"op" yaml:"op" mapstructure:"op"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// String renders the operation as op or op{key=value,...}, args sorted by key.
func (o Operation) String() string {
	if len(o.Args) == 0 {
		return o.Op
	}
	keys := make([]string, 0, len(o.Args))
	for k := range o.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, o.Args[k])
	}
	return o.Op + "{" + strings.Join(parts, ",") + "}"
}

// Emit returns a terminal, named after op, that always produces the
// operation.
func Emit(op string, args map[string]any) goal.Terminal {
	operation := &Operation{Op: op, Args: args}
	return goal.NewTerminalFunc(op, func(goal.Agent) (goal.Action, error) {
		return operation, nil
	})
}
