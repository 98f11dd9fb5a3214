// Package tasks implements the scheduled background tasks of chatinsight.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/database"
)

// TaskDeps contains the dependencies of the scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.SchedulerConfig
	Now    func() time.Time
}
