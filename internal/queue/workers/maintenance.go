// Package workers holds the asynq task handlers.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rotzhost/rotzcoder/internal/analytics"
	"github.com/rotzhost/rotzcoder/internal/queue"
	"github.com/rotzhost/rotzcoder/internal/user"
)

// MaintenanceWorker runs the periodic housekeeping tasks: expired
// session purge, daily usage rollups, and raw event pruning.
type MaintenanceWorker struct {
	store         *user.Store
	collector     *analytics.Collector
	retentionDays int
}

func NewMaintenanceWorker(store *user.Store, collector *analytics.Collector, retentionDays int) *MaintenanceWorker {
	return &MaintenanceWorker{
		store:         store,
		collector:     collector,
		retentionDays: retentionDays,
	}
}

func (w *MaintenanceWorker) PurgeSessions(ctx context.Context, t *asynq.Task) error {
	n, err := w.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		slog.Info("purged expired sessions", "count", n)
	}
	return nil
}

func (w *MaintenanceWorker) RollupUsage(ctx context.Context, t *asynq.Task) error {
	var payload queue.RollupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal rollup payload: %w", err)
		}
	}

	days, err := payload.Days(time.Now())
	if err != nil {
		return err
	}
	for _, day := range days {
		if err := w.collector.RollupDaily(ctx, day); err != nil {
			return err
		}
	}
	slog.Info("rolled up usage", "days", len(days))
	return nil
}

func (w *MaintenanceWorker) PruneEvents(ctx context.Context, t *asynq.Task) error {
	removed, err := w.collector.Prune(ctx, w.retentionDays)
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("pruned analytics rows", "count", removed, "retention_days", w.retentionDays)
	}
	return nil
}
