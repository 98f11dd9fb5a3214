package tasks

import (
	"context"
	"time"

	"github.com/edgard/chatinsight/internal/config"
)

// Task names, shared by the registry and the schedule table.
const (
	SQLMaintenance = "sql_maintenance"
	ImportCleanup  = "import_cleanup"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// respect cancellation of ctx.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance: newSQLMaintenanceTask(deps),
		ImportCleanup:  newImportCleanupTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// Schedules maps task names to their configured cron expressions.
func Schedules(cfg config.SchedulerConfig) map[string]string {
	return map[string]string{
		SQLMaintenance: cfg.SQLMaintenance,
		ImportCleanup:  cfg.ImportCleanup,
	}
}
