package goal

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_FirstTerminalActionWins(t *testing.T) {
	t.Parallel()

	root := New("root", WithChildren(
		Func("always_none", alwaysNone),
		Func("always_action", alwaysAction("X")),
	))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "X", action)
	require.Equal(t, `.Goal("root").always_none().always_action()`, root.LastTrace())
}

func TestEvaluate_LaterSiblingsNotInvoked(t *testing.T) {
	t.Parallel()

	first := &countingTerminal{name: "first", action: "A"}
	second := &countingTerminal{name: "second", action: "B"}
	root := New("root", WithChildren(Do(first), Do(second)))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "A", action)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 0, second.calls)
}

func TestEvaluate_FulfilledSubgoalSkipped(t *testing.T) {
	t.Parallel()

	hidden := &countingTerminal{name: "hidden", action: "Z"}
	g1 := New("g1", fulfilledWhen(true), WithChildren(Do(hidden)))
	g2 := New("g2", fulfilledWhen(false), WithChildren(Func("act", alwaysAction("Y"))))
	root := New("root", WithSubgoals(g1, g2))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Y", action)
	require.Equal(t, Fulfilled, g1.Fulfillment())
	require.Equal(t, NotFulfilled, g2.Fulfillment())
	require.Equal(t, 0, hidden.calls)
	require.Equal(t, `.Goal("root").Goal("g2").act()`, root.LastTrace())
	require.NotContains(t, root.LastTrace(), "g1")
}

func TestEvaluate_FulfilledRootProducesNothing(t *testing.T) {
	t.Parallel()

	root := New("root", fulfilledWhen(true), WithChildren(Func("act", alwaysAction("X"))))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Equal(t, Fulfilled, root.Fulfillment())
	require.Empty(t, root.LastTrace())
}

func TestEvaluate_FulfillmentRecheckedEveryPass(t *testing.T) {
	t.Parallel()

	done := true
	g := New("g",
		WithFulfilled(PredicateFunc(func(Agent) (bool, error) { return done, nil })),
		WithChildren(Func("act", alwaysAction("X"))),
	)

	action, err := g.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Equal(t, Fulfilled, g.Fulfillment())

	done = false
	action, err = g.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "X", action)
	require.Equal(t, NotFulfilled, g.Fulfillment())
}

func TestEvaluate_IrrelevantChildRemoved(t *testing.T) {
	t.Parallel()

	g := New("g", WithChildren(Func("never", alwaysAction("G"))))
	g.SetIrrelevant(true)
	g2 := New("g2", WithChildren(Func("act", alwaysAction("Y"))))
	root := New("root", WithSubgoals(g, g2))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Y", action)
	require.Equal(t, []*Goal{g2}, root.Subgoals())
	require.NotContains(t, root.LastTrace(), `"g"`)
	require.Equal(t, Unevaluated, g.Fulfillment())
}

func TestEvaluate_ConsecutiveIrrelevantChildrenAllRemoved(t *testing.T) {
	t.Parallel()

	a := New("a")
	a.SetIrrelevant(true)
	b := New("b")
	b.SetIrrelevant(true)
	c := New("c", WithChildren(Func("act", alwaysAction("C"))))
	root := New("root", WithSubgoals(a, b, c))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "C", action)
	require.Equal(t, []*Goal{c}, root.Subgoals())
}

func TestEvaluate_IrrelevantChildAfterActionKept(t *testing.T) {
	t.Parallel()

	late := New("late")
	late.SetIrrelevant(true)
	root := New("root", WithChildren(Func("act", alwaysAction("X")), SubGoal(late)))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "X", action)
	// never reached this pass
	require.Equal(t, []*Goal{late}, root.Subgoals())
}

func TestEvaluate_IrrelevantRootSkippedKeepsTrace(t *testing.T) {
	t.Parallel()

	root := New("root", WithChildren(Func("none", alwaysNone)))
	_, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	prior := root.LastTrace()
	require.Equal(t, `.Goal("root").none()`, prior)

	root.SetIrrelevant(true)
	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Equal(t, prior, root.LastTrace())
}

func TestEvaluate_TimeWindow(t *testing.T) {
	t.Parallel()

	t.Run("outside window", func(t *testing.T) {
		t.Parallel()
		term := &countingTerminal{name: "act", action: "X"}
		g := New("g", WithTimeWindow("morning"), WithChildren(Do(term)))
		action, err := g.Evaluate(nil, instantOf("night"))
		require.NoError(t, err)
		require.Nil(t, action)
		require.Equal(t, Unevaluated, g.Fulfillment())
		require.Empty(t, g.LastTrace())
		require.Equal(t, 0, term.calls)
	})

	t.Run("inside window", func(t *testing.T) {
		t.Parallel()
		g := New("g", WithTimeWindow("morning"), WithChildren(Func("act", alwaysAction("X"))))
		action, err := g.Evaluate(nil, instantOf("morning"))
		require.NoError(t, err)
		require.Equal(t, "X", action)
	})

	t.Run("subgoal outside window skipped", func(t *testing.T) {
		t.Parallel()
		early := New("early", WithTimeWindow("morning"), WithChildren(Func("a", alwaysAction("A"))))
		late := New("late", WithChildren(Func("b", alwaysAction("B"))))
		root := New("root", WithSubgoals(early, late))
		action, err := root.Evaluate(nil, instantOf())
		require.NoError(t, err)
		require.Equal(t, "B", action)
		require.Equal(t, `.Goal("root").Goal("late").b()`, root.LastTrace())
		// skipped, not pruned
		require.Len(t, root.Subgoals(), 2)
	})

	t.Run("no time service", func(t *testing.T) {
		t.Parallel()
		g := New("g", WithTimeWindow("morning"))
		_, err := g.Evaluate(nil, nil)
		require.ErrorIs(t, err, ErrNoTimeService)
	})
}

func TestEvaluate_DepthFirstPriority(t *testing.T) {
	t.Parallel()

	// root
	//   a
	//     a1 -> none
	//     a2 -> "A2"
	//   b -> "B"
	a1 := New("a1", WithChildren(Func("n", alwaysNone)))
	a2 := New("a2", WithChildren(Func("x", alwaysAction("A2"))))
	a := New("a", WithSubgoals(a1, a2))
	b := New("b", WithChildren(Func("y", alwaysAction("B"))))
	root := New("root", WithSubgoals(a, b))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "A2", action)
	require.Equal(t, `.Goal("root").Goal("a").Goal("a1").n().Goal("a2").x()`, root.LastTrace())
	require.Equal(t, Unevaluated, b.Fulfillment())
}

func TestEvaluate_NoAction(t *testing.T) {
	t.Parallel()

	root := New("root", WithSubgoals(New("empty")), WithChildren(Func("none", alwaysNone)))
	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Equal(t, `.Goal("root").Goal("empty").none()`, root.LastTrace())
}

func TestEvaluate_ErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	t.Run("terminal", func(t *testing.T) {
		t.Parallel()
		leaf := New("leaf", WithChildren(Func("explode", func(Agent) (Action, error) { return nil, boom })))
		after := &countingTerminal{name: "after", action: "X"}
		root := New("root", WithSubgoals(leaf), WithChildren(Do(after)))

		action, err := root.Evaluate(nil, nil)
		require.Nil(t, action)
		require.ErrorIs(t, err, boom)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		require.Same(t, leaf, evalErr.Goal)
		require.Equal(t, "terminal explode", evalErr.Op)
		require.Equal(t, 0, after.calls)
		// nothing recorded by the core itself
		require.Zero(t, leaf.ErrorCount())
		require.Equal(t, `.Goal("root").Goal("leaf").explode()`, root.LastTrace())
	})

	t.Run("fulfilled predicate", func(t *testing.T) {
		t.Parallel()
		leaf := New("leaf", WithFulfilled(PredicateFunc(func(Agent) (bool, error) { return false, boom })))
		root := New("root", WithSubgoals(leaf))

		_, err := root.Evaluate(nil, nil)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		require.Same(t, leaf, evalErr.Goal)
		require.Equal(t, "fulfilled", evalErr.Op)
	})
}

func TestEvaluate_ChildAddedDuringPassIsVisited(t *testing.T) {
	t.Parallel()

	root := New("root")
	root.AddChild(Func("spawn", func(Agent) (Action, error) {
		root.AddChild(Func("spawned", alwaysAction("S")))
		return nil, nil
	}))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "S", action)
}

func TestEvaluate_AtMostOneAction(t *testing.T) {
	t.Parallel()

	terms := make([]*countingTerminal, 5)
	var children []Child
	for i := range terms {
		terms[i] = &countingTerminal{name: "t", action: i}
		children = append(children, Do(terms[i]))
	}
	root := New("root", WithChildren(children...))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, action)
	total := 0
	for _, term := range terms {
		total += term.calls
	}
	require.Equal(t, 1, total)
}

func TestEvaluate_DebugTrace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		debug bool
	}{
		{name: "debug node", debug: true},
		{name: "quiet node", debug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			// default handler level; the node flag alone enables the trace
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			root := New("root",
				WithDebug(tt.debug),
				WithLogger(logger),
				WithChildren(Func("act", alwaysAction("X"))),
			)

			action, err := root.Evaluate(nil, nil)
			require.NoError(t, err)
			require.Equal(t, "X", action)

			out := buf.String()
			for _, line := range []string{
				`GOAL desc: Goal(\"root\")`,
				"GOAL: bef fulfilled: root",
				"GOAL: is not fulfilled: root",
				"GOAL: bef function: act()",
				"GOAL: aft function: act() X",
			} {
				if tt.debug {
					require.Contains(t, out, line)
				} else {
					require.NotContains(t, out, line)
				}
			}
			if !tt.debug {
				require.Empty(t, out)
			}
		})
	}
}

func TestEvaluate_DebugTraceFulfilled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sub := New("sub", fulfilledWhen(true), WithDebug(true), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	root := New("root", WithSubgoals(sub))

	action, err := root.Evaluate(nil, nil)
	require.NoError(t, err)
	require.Nil(t, action)
	require.Contains(t, buf.String(), "GOAL: is fulfilled: sub")
	require.NotContains(t, buf.String(), "is not fulfilled")
}
