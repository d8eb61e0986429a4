package workers

import (
	"context"
	"log/slog"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/application"
)

const defaultSweepMaxAge = 24 * time.Hour

// SweeperJob purges aged terminal entries. Pending entries are never swept,
// so an outstanding submission is never silently forgotten.
type SweeperJob struct {
	Journal application.Service
	MaxAge  time.Duration
	Logger  *slog.Logger
}

func (j SweeperJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	maxAge := j.MaxAge
	if maxAge <= 0 {
		maxAge = defaultSweepMaxAge
	}

	removed, err := j.Journal.Sweep(ctx, maxAge)
	if err != nil {
		logger.Error("journal sweep failed",
			"event", "journal_sweep_failed",
			"module", "client-tracking/transfer-journal",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if removed > 0 {
		logger.Info("journal sweep completed",
			"event", "journal_sweep_completed",
			"module", "client-tracking/transfer-journal",
			"layer", "worker",
			"removed", removed,
			"max_age", maxAge.String(),
		)
	}
	return nil
}
