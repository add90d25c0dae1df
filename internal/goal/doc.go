// Package goal implements hierarchical goal trees, evaluated once per
// simulation tick to decide what (if anything) an agent does next.
//
// A Goal has a fulfillment predicate, a validity predicate, an optional time
// window, and an ordered list of children. Each child is either a nested Goal
// or a Terminal, which may produce an action.
//
// # Evaluation
//
// Evaluate walks the tree depth-first, in child order:
//
//   - irrelevant goals, and goals whose time window is not now, are skipped
//     without leaving a trace
//   - a goal whose fulfillment predicate holds is skipped for this pass (it is
//     re-checked on the next one)
//   - otherwise children are visited in order; the first action produced by a
//     terminal, or by a nested goal, ends the pass
//
// Nested goals marked irrelevant are removed from their parent's children as
// the parent reaches them.
//
// Predicate and terminal errors are returned as *EvalError rather than being
// recorded by the goal. Error accounting (RecordError, SetIrrelevant) is the
// owning runtime's policy.
//
// # Factory
//
// Registry maps type identifiers to FactoryFunc values, so trees can be
// assembled from declarative Description values:
//
//	r := goal.NewRegistry()
//	r.MustRegister("pkg.SimpleGoal", func(r *goal.Registry, p goal.Params) (*goal.Goal, error) {
//		var params struct {
//			Description string `mapstructure:"description"`
//		}
//		if err := goal.Decode(p, &params); err != nil {
//			return nil, err
//		}
//		return goal.New(params.Description, goal.WithType("SimpleGoal")), nil
//	})
//	g, err := r.Create(&goal.Description{Type: "pkg.SimpleGoal", Params: goal.Params{"description": "eat"}})
package goal
