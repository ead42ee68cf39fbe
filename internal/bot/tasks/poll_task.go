package tasks

import (
	"context"
	"fmt"
)

// newManualPollTask creates the scheduled task that runs one fetch cycle.
// It gives installations with auto reception disabled a way to drain
// pending messages on a schedule instead of manually.
func newManualPollTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "manual_poll")

	return func(ctx context.Context) error {
		log.DebugContext(ctx, "Starting scheduled manual poll")

		if err := deps.Poller.Poll(ctx); err != nil {
			return fmt.Errorf("manual poll failed: %w", err)
		}

		return nil
	}
}
