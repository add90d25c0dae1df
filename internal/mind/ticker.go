package mind

import (
	"context"
	"errors"
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/goaltree/internal/goal"
)

// NowFunc supplies the current simulation time for a tick.
type NowFunc func() goal.Instant

// Node returns a behavior tree leaf that ticks the mind once per tick. It
// succeeds when an action was produced (and passed to dispatch) and fails
// when the mind was idle. Errors from Tick are returned as the tick error.
func (m *Mind) Node(now NowFunc, dispatch func(goal.Action)) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		var instant goal.Instant
		if now != nil {
			instant = now()
		}
		action, err := m.Tick(instant)
		if err != nil {
			return bt.Failure, err
		}
		if action == nil {
			return bt.Failure, nil
		}
		if dispatch != nil {
			dispatch(action)
		}
		return bt.Success, nil
	})
}

// Run ticks the mind every interval until ctx is done or a tick fails with
// an error. Cancellation is not an error.
func (m *Mind) Run(ctx context.Context, interval time.Duration, now NowFunc, dispatch func(goal.Action)) error {
	return Drive(ctx, interval, m.Node(now, dispatch))
}

// Drive ticks node every interval until ctx is done or a tick fails with an
// error, which is returned. Cancellation is not an error.
func Drive(ctx context.Context, interval time.Duration, node bt.Node) error {
	ticker := bt.NewTicker(ctx, interval, node)
	<-ticker.Done()
	if err := ticker.Err(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
