package goals

import (
	"fmt"
	"reflect"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/spf13/cast"

	"github.com/joeycumines/goaltree/internal/goal"
)

// EnsureParams are the parameters of a goals.Ensure description.
type EnsureParams struct {
	Description string         `mapstructure:"description"`
	Key         string         `mapstructure:"key"`
	Value       any            `mapstructure:"value"`
	Op          string         `mapstructure:"op"`
	Args        map[string]any `mapstructure:"args"`
	Validity    string         `mapstructure:"validity"`
	Time        string         `mapstructure:"time"`
	Debug       bool           `mapstructure:"debug"`
}

// NewEnsure builds a goal that is fulfilled while the agent variable key
// equals value, and otherwise emits op.
func NewEnsure(r *goal.Registry, p goal.Params) (*goal.Goal, error) {
	var params EnsureParams
	if err := goal.Decode(p, &params); err != nil {
		return nil, err
	}
	if params.Key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if params.Op == "" {
		return nil, fmt.Errorf("op cannot be empty")
	}

	opts, err := commonOptions(r, "", params.Validity, params.Time, params.Debug)
	if err != nil {
		return nil, err
	}

	description := params.Description
	if description == "" {
		description = fmt.Sprintf("ensure %s is %v", params.Key, params.Value)
	}

	opts = append(opts,
		goal.WithType("Ensure"),
		goal.WithFulfilled(goal.NewConditionPredicate(EqualityCond(params.Key, params.Value))),
		goal.WithField("key", func() any { return params.Key }),
		goal.WithField("value", func() any { return params.Value }),
		goal.WithChildren(goal.Do(Emit(params.Op, params.Args))),
	)
	return goal.New(description, opts...), nil
}

// Cond is a go-pabt condition with a fixed key and match function.
type Cond struct {
	key   any
	match func(value any) bool
}

var _ pabtpkg.Condition = (*Cond)(nil)

// NewCond creates a condition on key.
func NewCond(key any, match func(value any) bool) *Cond {
	return &Cond{key: key, match: match}
}

// Key implements pabt.Condition.Key.
func (c *Cond) Key() any { return c.key }

// Match implements pabt.Condition.Match.
func (c *Cond) Match(value any) bool {
	if c.match == nil {
		return false
	}
	return c.match(value)
}

// EqualityCond matches when the variable equals expected. Numbers compare by
// value regardless of their Go type, so a YAML 0 matches an int64 0.
func EqualityCond(key, expected any) *Cond {
	return NewCond(key, func(value any) bool {
		return valuesEqual(value, expected)
	})
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	if isNumber(a) && isNumber(b) {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		return errA == nil && errB == nil && fa == fb
	}
	return false
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
