package tasks

import (
	"context"
	"fmt"
	"time"
)

const defaultStaleImportAge = time.Hour

// newImportCleanupTask marks imports stuck in the pending state as failed.
// An import is stuck once it is older than the configured stale age.
func newImportCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", ImportCleanup)

	age := defaultStaleImportAge
	if deps.Config != nil && deps.Config.StaleImportAge > 0 {
		age = deps.Config.StaleImportAge
	}

	return func(ctx context.Context) error {
		cutoff := deps.Now().Add(-age)

		n, err := deps.Store.CleanupStaleImports(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Import cleanup failed", "error", err)
			return fmt.Errorf("import cleanup failed: %w", err)
		}

		if n > 0 {
			log.WarnContext(ctx, "Marked stale imports as failed", "count", n, "cutoff", cutoff)
		} else {
			log.DebugContext(ctx, "No stale imports found", "cutoff", cutoff)
		}
		return nil
	}
}
