package analytics

import (
	"context"
	"fmt"
	"time"
)

// RollupDaily recomputes the usage_daily aggregate for one calendar
// day from the raw usage_logs. Recomputing the whole day makes the
// rollup idempotent, so the worker can run it as often as it likes.
func (c *Collector) RollupDaily(ctx context.Context, day time.Time) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO usage_daily (day, provider, model, calls, total_tokens, cost_usd)
		SELECT $1::date, provider, model, COUNT(*),
		       COALESCE(SUM(input_tokens + output_tokens), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_logs
		WHERE created_at >= $1::date AND created_at < $1::date + INTERVAL '1 day'
		GROUP BY provider, model
		ON CONFLICT (day, provider, model) DO UPDATE
		SET calls = EXCLUDED.calls,
		    total_tokens = EXCLUDED.total_tokens,
		    cost_usd = EXCLUDED.cost_usd`,
		day)
	if err != nil {
		return fmt.Errorf("rollup usage for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// Prune removes raw events and usage rows past the retention period.
// The usage_daily aggregates survive, so history stays visible on the
// dashboard after the raw rows go.
func (c *Collector) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var removed int64
	for _, table := range []string{"events", "usage_logs"} {
		tag, err := c.db.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, table), cutoff)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", table, err)
		}
		removed += tag.RowsAffected()
	}
	return removed, nil
}
