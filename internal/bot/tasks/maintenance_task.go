package tasks

import (
	"context"
	"fmt"
	"time"
)

// captureRetention is how long capture records are kept for deduplication.
// Telegram's getUpdates backlog is far shorter than this, so pruned records
// can no longer be redelivered.
const captureRetention = 90 * 24 * time.Hour

// newMaintenanceTask creates the scheduled task that prunes old capture
// records and vacuums the database.
func newMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "capture_log_maintenance")

	return func(ctx context.Context) error {
		removed, err := deps.Store.PruneCaptures(ctx, captureRetention)
		if err != nil {
			return fmt.Errorf("capture prune failed: %w", err)
		}

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return fmt.Errorf("maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Capture log maintenance completed", "pruned", removed)
		return nil
	}
}
