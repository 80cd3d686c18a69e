package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotzhost/rotzcoder/internal/cache"
	"github.com/rotzhost/rotzcoder/internal/models"
)

// Dashboard serves the admin analytics views. Every query is bounded
// by a trailing window and optionally cached in Redis; the cache is
// read-through, so a cold or absent Redis just means fresh queries.
type Dashboard struct {
	db    *pgxpool.Pool
	cache *cache.Cache
	ttl   time.Duration
}

func NewDashboard(db *pgxpool.Pool) *Dashboard {
	return &Dashboard{db: db, ttl: 5 * time.Minute}
}

func (d *Dashboard) WithCache(c *cache.Cache, ttl time.Duration) *Dashboard {
	d.cache = c
	if ttl > 0 {
		d.ttl = ttl
	}
	return d
}

type Overview struct {
	Window       string  `json:"window"`
	TotalUsers   int     `json:"total_users"`
	ActiveUsers  int     `json:"active_users"`
	NewUsers     int     `json:"new_users"`
	Logins       int     `json:"logins"`
	TasksRun     int     `json:"tasks_run"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

func (d *Dashboard) Overview(ctx context.Context, window string) (*Overview, error) {
	label, span := ParseWindow(window)
	var out Overview
	if d.fromCache(ctx, "overview:"+label, &out) {
		return &out, nil
	}

	since := time.Now().Add(-span)
	err := d.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(DISTINCT user_id) FROM events WHERE user_id IS NOT NULL AND created_at >= $1),
			(SELECT COUNT(*) FROM users WHERE created_at >= $1),
			(SELECT COUNT(*) FROM events WHERE event_type = $2 AND created_at >= $1),
			(SELECT COUNT(*) FROM usage_logs WHERE created_at >= $1),
			(SELECT COALESCE(SUM(input_tokens + output_tokens), 0) FROM usage_logs WHERE created_at >= $1),
			(SELECT COALESCE(SUM(cost_usd), 0) FROM usage_logs WHERE created_at >= $1)`,
		since, models.EventUserLogin,
	).Scan(&out.TotalUsers, &out.ActiveUsers, &out.NewUsers, &out.Logins,
		&out.TasksRun, &out.TotalTokens, &out.TotalCostUSD)
	if err != nil {
		return nil, fmt.Errorf("query overview: %w", err)
	}
	out.Window = label

	d.toCache(ctx, "overview:"+label, out)
	return &out, nil
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func (d *Dashboard) EventsByType(ctx context.Context, window string) ([]TypeCount, error) {
	label, span := ParseWindow(window)
	var out []TypeCount
	if d.fromCache(ctx, "events_by_type:"+label, &out) {
		return out, nil
	}

	rows, err := d.db.Query(ctx,
		`SELECT event_type, COUNT(*) FROM events
		 WHERE created_at >= $1
		 GROUP BY event_type ORDER BY COUNT(*) DESC`,
		time.Now().Add(-span))
	if err != nil {
		return nil, fmt.Errorf("query events by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan event type count: %w", err)
		}
		out = append(out, tc)
	}

	d.toCache(ctx, "events_by_type:"+label, out)
	return out, nil
}

type DayActivity struct {
	Day         time.Time `json:"day"`
	Events      int       `json:"events"`
	ActiveUsers int       `json:"active_users"`
}

func (d *Dashboard) DailyActivity(ctx context.Context, window string) ([]DayActivity, error) {
	label, span := ParseWindow(window)
	var out []DayActivity
	if d.fromCache(ctx, "daily_activity:"+label, &out) {
		return out, nil
	}

	rows, err := d.db.Query(ctx,
		`SELECT date_trunc('day', created_at) AS day,
		        COUNT(*),
		        COUNT(DISTINCT user_id)
		 FROM events WHERE created_at >= $1
		 GROUP BY day ORDER BY day`,
		time.Now().Add(-span))
	if err != nil {
		return nil, fmt.Errorf("query daily activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var da DayActivity
		if err := rows.Scan(&da.Day, &da.Events, &da.ActiveUsers); err != nil {
			return nil, fmt.Errorf("scan daily activity: %w", err)
		}
		out = append(out, da)
	}

	d.toCache(ctx, "daily_activity:"+label, out)
	return out, nil
}

type UserActivity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Events int       `json:"events"`
}

func (d *Dashboard) TopUsers(ctx context.Context, window string, limit int) ([]UserActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	label, span := ParseWindow(window)
	key := fmt.Sprintf("top_users:%s:%d", label, limit)
	var out []UserActivity
	if d.fromCache(ctx, key, &out) {
		return out, nil
	}

	rows, err := d.db.Query(ctx,
		`SELECT u.id, u.email, COUNT(e.id)
		 FROM events e JOIN users u ON u.id = e.user_id
		 WHERE e.created_at >= $1
		 GROUP BY u.id, u.email
		 ORDER BY COUNT(e.id) DESC LIMIT $2`,
		time.Now().Add(-span), limit)
	if err != nil {
		return nil, fmt.Errorf("query top users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ua UserActivity
		if err := rows.Scan(&ua.UserID, &ua.Email, &ua.Events); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		out = append(out, ua)
	}

	d.toCache(ctx, key, out)
	return out, nil
}

// RecentEvents is uncached; it backs a live feed.
func (d *Dashboard) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := d.db.Query(ctx,
		`SELECT id, user_id, event_type, payload, created_at
		 FROM events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

type UsageSummary struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	SuccessRate  float64 `json:"success_rate"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

func (d *Dashboard) UsageSummary(ctx context.Context, window string) ([]UsageSummary, error) {
	label, span := ParseWindow(window)
	var out []UsageSummary
	if d.fromCache(ctx, "usage_summary:"+label, &out) {
		return out, nil
	}

	rows, err := d.db.Query(ctx,
		`SELECT provider, model, COUNT(*),
		        AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END),
		        COALESCE(SUM(input_tokens + output_tokens), 0),
		        COALESCE(SUM(cost_usd), 0),
		        COALESCE(AVG(latency_ms), 0)
		 FROM usage_logs WHERE created_at >= $1
		 GROUP BY provider, model
		 ORDER BY SUM(cost_usd) DESC`,
		time.Now().Add(-span))
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var us UsageSummary
		if err := rows.Scan(&us.Provider, &us.Model, &us.Calls, &us.SuccessRate,
			&us.TotalTokens, &us.TotalCostUSD, &us.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, us)
	}

	d.toCache(ctx, "usage_summary:"+label, out)
	return out, nil
}

func (d *Dashboard) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if d.cache == nil {
		return false
	}
	return d.cache.Get(ctx, "dash:"+key, dest) == nil
}

func (d *Dashboard) toCache(ctx context.Context, key string, v interface{}) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, "dash:"+key, v, d.ttl); err != nil {
		slog.Debug("dashboard cache set failed", "key", key, "error", err)
	}
}
