package notes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WaitForSyncIdle blocks until the vault directory has seen no file events
// for the settle window, then returns. It is used when run_after_sync is
// enabled so the bot does not start writing notes while an external sync is
// still modifying the vault. A vault directory that does not yet exist is
// treated as already idle.
func WaitForSyncIdle(ctx context.Context, dir string, settle time.Duration, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create vault watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.Warn("Vault directory not watchable, assuming idle", "dir", dir, "error", err)
		return nil
	}

	log.Info("Waiting for vault sync to settle", "dir", dir, "settle", settle)

	timer := time.NewTimer(settle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			log.Info("Vault sync settled", "dir", dir)
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.Debug("Vault activity, resetting settle timer", "event", event.String())
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Vault watcher error", "error", err)
		}
	}
}
