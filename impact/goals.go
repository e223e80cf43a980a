package impact

import (
	"context"
	"time"

	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/store"
)

// UpdateGoalProgress records progress on a goal and moves its status:
// achieved once progress reaches the target, missed when the deadline passed
// before that, in progress otherwise.
func UpdateGoalProgress(ctx context.Context, goals *store.Collection[record.ImpactGoal], id string, progress float64, now time.Time) (record.ImpactGoal, error) {
	return goals.UpdateFunc(ctx, id, func(g record.ImpactGoal) (store.Fields, error) {
		return store.Fields{
			"progress": progress,
			"status":   record.GoalStatusAt(g, progress, now),
		}, nil
	})
}
