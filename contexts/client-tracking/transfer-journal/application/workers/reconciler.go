package workers

import (
	"context"
	"log/slog"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/application"
	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	"multisender/contexts/client-tracking/transfer-journal/ports"
)

// TimeoutReason is recorded verbatim on entries that never received a
// terminal signal within their deadline.
const TimeoutReason = "timeout"

const defaultWatchTimeout = 30 * time.Second

// Reconciler folds the terminal outcome of one dispatched submission back
// into the journal. One Watch runs per outstanding submission; observers for
// different ids are fully independent and may resolve in any order.
type Reconciler struct {
	Journal application.Service
	Timeout time.Duration
	Logger  *slog.Logger
}

// Watch blocks until the submission's outcome arrives, the deadline expires,
// or ctx is cancelled. Run it on its own goroutine. Marking an entry Failed
// on timeout never cancels the dispatched request itself; a late outcome for
// an already-terminal entry is discarded by the journal's idempotence.
func (r Reconciler) Watch(ctx context.Context, entryID string, results <-chan ports.DispatchResult) {
	logger := application.ResolveLogger(r.Logger)
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultWatchTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		// Local bookkeeping only: the dispatched request stays in flight and
		// the entry stays Pending.
		logger.Info("reconciliation watch cancelled",
			"event", "reconciliation_watch_cancelled",
			"module", "client-tracking/transfer-journal",
			"layer", "worker",
			"entry_id", entryID,
		)
		return

	case result := <-results:
		if result.Err != nil {
			_, applied, err := r.Journal.UpdateStatus(ctx, entryID,
				entities.JournalStatusFailed, "", result.Err.Error())
			r.logResolution(logger, entryID, "failed", applied, err)
			return
		}
		_, applied, err := r.Journal.UpdateStatus(ctx, entryID,
			entities.JournalStatusConfirmed, result.ConfirmationID, "")
		r.logResolution(logger, entryID, "confirmed", applied, err)

	case <-timer.C:
		_, applied, err := r.Journal.UpdateStatus(ctx, entryID,
			entities.JournalStatusFailed, "", TimeoutReason)
		r.logResolution(logger, entryID, "timed_out", applied, err)
	}
}

func (r Reconciler) logResolution(logger *slog.Logger, entryID string, outcome string, applied bool, err error) {
	if err != nil {
		logger.Error("reconciliation update failed",
			"event", "reconciliation_update_failed",
			"module", "client-tracking/transfer-journal",
			"layer", "worker",
			"entry_id", entryID,
			"outcome", outcome,
			"error", err.Error(),
		)
		return
	}
	logger.Info("reconciliation resolved",
		"event", "reconciliation_resolved",
		"module", "client-tracking/transfer-journal",
		"layer", "worker",
		"entry_id", entryID,
		"outcome", outcome,
		"applied", applied,
	)
}
