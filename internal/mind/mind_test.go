package mind

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/goaltree/internal/goal"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func acting(desc string, action goal.Action) *goal.Goal {
	return goal.New(desc, goal.WithChildren(goal.Func("act", func(goal.Agent) (goal.Action, error) {
		return action, nil
	})))
}

func failing(desc string) *goal.Goal {
	return goal.New(desc, goal.WithChildren(goal.Func("boom", func(goal.Agent) (goal.Action, error) {
		return nil, errors.New("boom")
	})))
}

type nowInstant struct{}

func (nowInstant) IsNow(any) bool { return true }

func TestMind_FirstActionWins(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	idle := goal.New("idle", goal.WithChildren(goal.Func("noop", func(goal.Agent) (goal.Action, error) {
		return nil, nil
	})))
	m.AddGoal(idle)
	m.AddGoal(acting("first", "a"))
	m.AddGoal(acting("second", "b"))

	action, err := m.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, "a", action)
	require.Equal(t, `.Goal("idle").noop()`, idle.LastTrace())
}

func TestMind_Idle(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	action, err := m.Tick(nil)
	require.NoError(t, err)
	require.Nil(t, action)

	require.Empty(t, m.AddGoal(nil))
	require.Empty(t, m.Goals())
}

func TestMind_ErrorThreshold(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	bad := failing("bad")
	m.AddGoal(bad)
	m.AddGoal(acting("good", "b"))

	for i := 1; i <= DefaultMaxErrors; i++ {
		action, err := m.Tick(nil)
		require.NoError(t, err)
		require.Equal(t, "b", action)
		require.Equal(t, i, bad.ErrorCount())
		require.False(t, bad.Irrelevant())
	}

	action, err := m.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, "b", action)
	require.Equal(t, DefaultMaxErrors+1, bad.ErrorCount())
	require.True(t, bad.Irrelevant())
	require.Contains(t, bad.LastError(), "boom")
	require.Len(t, m.Goals(), 2)

	// dropped on the next tick
	_, err = m.Tick(nil)
	require.NoError(t, err)
	require.Len(t, m.Goals(), 1)
	require.Equal(t, "good", m.Goals()[0].Description())
}

func TestMind_ErrorAttributedToSubgoal(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()), WithMaxErrors(1))
	sub := failing("sub")
	fallback := acting("fallback", "f")
	root := goal.New("root", goal.WithSubgoals(sub, fallback))
	m.AddGoal(root)

	action, err := m.Tick(nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Equal(t, 1, sub.ErrorCount())
	require.Zero(t, root.ErrorCount())

	action, err = m.Tick(nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.True(t, sub.Irrelevant())
	require.False(t, root.Irrelevant())

	// the parent prunes the irrelevant subgoal and reaches its sibling
	action, err = m.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, "f", action)
	require.Equal(t, []*goal.Goal{fallback}, root.Subgoals())
}

func TestMind_PanicAttributedToRoot(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	sub := goal.New("sub", goal.WithChildren(goal.Func("explode", func(goal.Agent) (goal.Action, error) {
		panic("kaboom")
	})))
	root := goal.New("root", goal.WithSubgoals(sub))
	m.AddGoal(root)
	m.AddGoal(acting("next", "n"))

	action, err := m.Tick(nil)
	require.NoError(t, err)
	require.Equal(t, "n", action)
	require.Equal(t, 1, root.ErrorCount())
	require.Equal(t, "panic: kaboom", root.LastError())
	require.Zero(t, sub.ErrorCount())
}

func TestMind_NoTimeService(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	windowed := goal.New("nap", goal.WithTimeWindow("afternoon"))
	m.AddGoal(windowed)
	m.AddGoal(acting("next", "n"))

	action, err := m.Tick(nil)
	require.ErrorIs(t, err, goal.ErrNoTimeService)
	require.Nil(t, action)
	require.Zero(t, windowed.ErrorCount())

	action, err = m.Tick(nowInstant{})
	require.NoError(t, err)
	require.Equal(t, "n", action)
}

func TestMind_GoalsByKey(t *testing.T) {
	t.Parallel()

	m := New(nil)
	a := acting("a", 1)
	b := acting("b", 2)
	ka := m.AddGoal(a)
	kb := m.AddGoal(b)
	require.NotEqual(t, ka, kb)
	require.Same(t, a, m.Goal(ka))
	require.Same(t, b, m.Goal(kb))
	require.Nil(t, m.Goal("missing"))

	require.True(t, m.RemoveGoal(ka))
	require.False(t, m.RemoveGoal(ka))
	require.Equal(t, []*goal.Goal{b}, m.Goals())
}

func TestMind_Options(t *testing.T) {
	t.Parallel()

	agent := NewAgent("npc", nil)
	m := New(agent, WithMaxErrors(0))
	require.Equal(t, DefaultMaxErrors, m.MaxErrors())
	require.Same(t, agent, m.Agent())
	require.Equal(t, 3, New(nil, WithMaxErrors(3)).MaxErrors())
}

func TestMind_Report(t *testing.T) {
	t.Parallel()

	m := New(NewAgent("npc", nil), WithLogger(quietLogger()))
	key := m.AddGoal(failing("bad"))
	_, err := m.Tick(nil)
	require.NoError(t, err)

	reports := m.Report()
	require.Len(t, reports, 1)
	require.Equal(t, key, reports[0].Key)
	require.Equal(t, "bad", reports[0].Description)
	require.Equal(t, 1, reports[0].Errors)

	b, err := json.Marshal(reports)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, key, decoded[0]["key"])
	require.Equal(t, "bad", decoded[0]["description"])
	require.Equal(t, false, decoded[0]["fulfilled"])
}
