package goals

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/spf13/cast"

	"github.com/joeycumines/goaltree/internal/goal"
)

// ScriptParams are the parameters of a goals.Script description.
type ScriptParams struct {
	Description string `mapstructure:"description"`
	Name        string `mapstructure:"name"`
	Script      string `mapstructure:"script"`
	Fulfilled   string `mapstructure:"fulfilled"`
	Validity    string `mapstructure:"validity"`
	Time        string `mapstructure:"time"`
	Debug       bool   `mapstructure:"debug"`
}

// NewScript builds a goal whose only child is a JavaScript terminal.
func NewScript(r *goal.Registry, p goal.Params) (*goal.Goal, error) {
	var params ScriptParams
	if err := goal.Decode(p, &params); err != nil {
		return nil, err
	}

	opts, err := commonOptions(r, params.Fulfilled, params.Validity, params.Time, params.Debug)
	if err != nil {
		return nil, err
	}

	name := params.Name
	if name == "" {
		name = "script"
	}
	terminal, err := NewScriptTerminal(name, params.Script)
	if err != nil {
		return nil, err
	}

	opts = append(opts, goal.WithType("Script"), goal.WithChildren(goal.Do(terminal)))
	return goal.New(params.Description, opts...), nil
}

// ScriptTerminal is a terminal implemented by a JavaScript function of one
// argument, the agent. The agent is passed as its snapshot when it
// implements goal.Snapshotter.
//
// The function returns null or undefined for no action, an op name, or an
// object {op, args}. A ScriptTerminal owns its runtime and, like the goal
// holding it, is not safe for concurrent use.
type ScriptTerminal struct {
	name    string
	runtime *goja.Runtime
	fn      goja.Callable
}

var _ goal.Terminal = (*ScriptTerminal)(nil)

// NewScriptTerminal compiles source, which must evaluate to a function.
func NewScriptTerminal(name, source string) (*ScriptTerminal, error) {
	if source == "" {
		return nil, fmt.Errorf("script cannot be empty")
	}
	runtime := goja.New()
	runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	value, err := runtime.RunString("(" + source + ")")
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("script %s: does not evaluate to a function", name)
	}
	return &ScriptTerminal{name: name, runtime: runtime, fn: fn}, nil
}

// Name implements goal.Terminal.Name.
func (t *ScriptTerminal) Name() string { return t.name }

// Invoke implements goal.Terminal.Invoke.
func (t *ScriptTerminal) Invoke(agent goal.Agent) (goal.Action, error) {
	var arg any = agent
	if s, ok := agent.(goal.Snapshotter); ok {
		arg = s.Snapshot()
	}

	result, err := t.fn(goja.Undefined(), t.runtime.ToValue(arg))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", t.name, err)
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}

	switch v := result.Export().(type) {
	case string:
		return &Operation{Op: v}, nil
	case map[string]any:
		op, err := cast.ToStringE(v["op"])
		if err != nil || op == "" {
			return nil, fmt.Errorf("script %s: result has no op", t.name)
		}
		operation := &Operation{Op: op}
		if args, ok := v["args"]; ok && args != nil {
			if operation.Args, err = cast.ToStringMapE(args); err != nil {
				return nil, fmt.Errorf("script %s: args: %w", t.name, err)
			}
		}
		return operation, nil
	default:
		return nil, fmt.Errorf("script %s: unsupported result %T", t.name, v)
	}
}
