// Package analytics records usage events and serves the admin
// dashboard. Writes are best effort: a failed insert is logged and
// swallowed so analytics can never fail the request it describes.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotzhost/rotzcoder/internal/models"
)

type Collector struct {
	db *pgxpool.Pool
}

func NewCollector(db *pgxpool.Pool) *Collector {
	return &Collector{db: db}
}

// Event appends one row to the event stream. userID is nil for events
// with no acting user.
func (c *Collector) Event(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	body, _ := json.Marshal(payload)

	_, err := c.db.Exec(ctx,
		`INSERT INTO events (user_id, event_type, payload) VALUES ($1, $2, $3)`,
		userID, eventType, body)
	if err != nil {
		slog.Warn("record event failed", "event_type", eventType, "error", err)
	}
}

// Usage appends one LLM call record.
func (c *Collector) Usage(ctx context.Context, u models.UsageLog) {
	_, err := c.db.Exec(ctx,
		`INSERT INTO usage_logs (user_id, provider, model, task_type, input_tokens, output_tokens, cost_usd, latency_ms, success, error_kind)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.UserID, u.Provider, u.Model, u.TaskType, u.InputTokens, u.OutputTokens,
		u.CostUSD, u.LatencyMs, u.Success, u.ErrorKind)
	if err != nil {
		slog.Warn("record usage failed", "provider", u.Provider, "model", u.Model, "error", err)
	}
}
