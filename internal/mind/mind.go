// Package mind is the agent runtime that owns goal trees: it evaluates an
// agent's root goals every tick and applies the error policy the goal package
// leaves to its owner.
package mind

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/joeycumines/goaltree/internal/goal"
)

// DefaultMaxErrors is the number of errors a goal may accumulate before it is
// marked irrelevant.
const DefaultMaxErrors = 5

// Mind holds an agent's ordered root goals.
//
// Tick and Report are serialized by a mutex, so a mind may be ticked from a
// behavior tree ticker while being reported on from elsewhere. Goals handed
// to a mind must not be shared with another mind.
type Mind struct {
	mu        sync.Mutex
	agent     goal.Agent
	entries   []entry
	maxErrors int
	logger    *slog.Logger
}

type entry struct {
	key  string
	goal *goal.Goal
}

// Option configures a Mind.
type Option func(m *Mind)

// WithMaxErrors sets how many errors a goal may accumulate before it is
// marked irrelevant. Values below 1 are ignored.
func WithMaxErrors(n int) Option {
	return func(m *Mind) {
		if n > 0 {
			m.maxErrors = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mind) {
		m.logger = logger
	}
}

// New creates a mind acting for agent.
func New(agent goal.Agent, opts ...Option) *Mind {
	m := &Mind{
		agent:     agent,
		maxErrors: DefaultMaxErrors,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Agent returns the agent the mind acts for.
func (m *Mind) Agent() goal.Agent { return m.agent }

// MaxErrors returns the error threshold.
func (m *Mind) MaxErrors() int { return m.maxErrors }

// AddGoal appends a root goal, returning its key. A nil goal is ignored and
// yields "".
func (m *Mind) AddGoal(g *goal.Goal) string {
	if g == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := uuid.NewString()
	m.entries = append(m.entries, entry{key: key, goal: g})
	return key
}

// RemoveGoal removes the root goal with the given key.
func (m *Mind) RemoveGoal(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.key == key {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Goal returns the root goal with the given key, or nil.
func (m *Mind) Goal(key string) *goal.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.key == key {
			return e.goal
		}
	}
	return nil
}

// Goals returns the root goals in priority order.
func (m *Mind) Goals() []*goal.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	goals := make([]*goal.Goal, len(m.entries))
	for i, e := range m.entries {
		goals[i] = e.goal
	}
	return goals
}

// Tick evaluates the root goals in order and returns the first action
// produced, or nil.
//
// Irrelevant root goals are dropped. A goal that fails (returns an error or
// panics) has the failure recorded against it and the next root goal is
// tried; once a goal's error count exceeds MaxErrors it is marked
// irrelevant. goal.ErrNoTimeService is returned immediately.
func (m *Mind) Tick(now goal.Instant) (goal.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < len(m.entries); {
		e := m.entries[i]
		if e.goal.Irrelevant() {
			m.logger.Info("[Mind] removing irrelevant goal", "key", e.key, "goal", e.goal.Info())
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			continue
		}

		action, err := m.evaluate(e.goal, now)
		if err != nil {
			if errors.Is(err, goal.ErrNoTimeService) {
				return nil, err
			}
			m.recordFailure(e, err)
			i++
			continue
		}
		if action != nil {
			return action, nil
		}
		i++
	}

	return nil, nil
}

func (m *Mind) evaluate(g *goal.Goal, now goal.Instant) (action goal.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return g.Evaluate(m.agent, now)
}

func (m *Mind) recordFailure(root entry, err error) {
	target := root.goal
	var evalErr *goal.EvalError
	if errors.As(err, &evalErr) && evalErr.Goal != nil {
		target = evalErr.Goal
	}

	count := target.RecordError(err.Error())
	m.logger.Warn("[Mind] goal failed",
		"key", root.key,
		"goal", target.Info(),
		"errors", count,
		"error", err)

	if count > m.maxErrors {
		target.SetIrrelevant(true)
		m.logger.Warn("[Mind] too many errors, marking goal irrelevant",
			"key", root.key,
			"goal", target.Info(),
			"errors", count)
	}
}

// GoalReport is the report of one root goal.
type GoalReport struct {
	Key string `json:"key"`
	goal.Report
}

// Report describes every root goal, in priority order.
func (m *Mind) Report() []GoalReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	reports := make([]GoalReport, len(m.entries))
	for i, e := range m.entries {
		reports[i] = GoalReport{Key: e.key, Report: e.goal.Report()}
	}
	return reports
}
