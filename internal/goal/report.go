package goal

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Report is a point-in-time snapshot of a goal and its nested goals.
type Report struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Fulfilled          Fulfillment       `json:"fulfilled"`
	LastProcessedGoals string            `json:"lastProcessedGoals,omitempty"`
	Subgoals           []Report          `json:"subgoals,omitempty"`
	Variables          map[string]string `json:"variables,omitempty"`
	Errors             int               `json:"errors,omitempty"`
	LastError          string            `json:"lastError,omitempty"`
}

// Report describes the goal and, recursively, its nested goals. Terminals are
// not included. It does not modify the goal.
func (g *Goal) Report() Report {
	r := Report{
		Name:               g.typeName,
		Description:        g.description,
		Fulfilled:          g.fulfillment,
		LastProcessedGoals: g.lastTrace,
	}

	for _, c := range g.children {
		if sg := c.Goal(); sg != nil {
			r.Subgoals = append(r.Subgoals, sg.Report())
		}
	}

	if len(g.fields) > 0 {
		r.Variables = make(map[string]string, len(g.fields))
		for _, f := range g.fields {
			r.Variables[f.Name] = renderValue(f.Value())
		}
	}

	if g.errorCount > 0 {
		r.Errors = g.errorCount
		r.LastError = g.lastError
	}

	return r
}

// Info renders the goal's identity, as used in traces: TypeName("description"),
// or TypeName(value1,value2,...) for goals that declare fields.
func (g *Goal) Info() string {
	if len(g.fields) == 0 {
		return fmt.Sprintf("%s(%q)", g.typeName, g.description)
	}
	values := make([]string, len(g.fields))
	for i, f := range g.fields {
		values[i] = renderValue(f.Value())
	}
	return g.typeName + "(" + strings.Join(values, ",") + ")"
}

// String implements fmt.Stringer.
func (g *Goal) String() string { return g.Info() }

func renderValue(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
