// Package routing maps task types to provider/model choices. Admins
// maintain the table; completion requests that name no model resolve
// through it.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotzhost/rotzcoder/internal/models"
)

var (
	ErrRouteNotFound   = errors.New("model route not found")
	ErrNoRoute         = errors.New("no active route for task type")
	ErrBadTaskType     = errors.New("invalid task type")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrModelRequired   = errors.New("model is required")
	ErrDuplicateRoute  = errors.New("route already exists for provider, model and task type")
)

type providerSet interface {
	Has(name string) bool
}

type Service struct {
	db        *pgxpool.Pool
	providers providerSet
}

func NewService(db *pgxpool.Pool, providers providerSet) *Service {
	return &Service{db: db, providers: providers}
}

const routeColumns = `id, provider, model, task_type, priority, parameters, active, created_at, updated_at`

func (s *Service) List(ctx context.Context) ([]models.ModelRoute, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+routeColumns+` FROM model_routes ORDER BY task_type, priority, provider`)
	if err != nil {
		return nil, fmt.Errorf("query model routes: %w", err)
	}
	defer rows.Close()

	var routes []models.ModelRoute
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *r)
	}
	return routes, nil
}

type CreateRouteParams struct {
	Provider   string                 `json:"provider"`
	Model      string                 `json:"model"`
	TaskType   string                 `json:"task_type"`
	Priority   int                    `json:"priority"`
	Parameters map[string]interface{} `json:"parameters"`
}

func (s *Service) Create(ctx context.Context, p CreateRouteParams) (*models.ModelRoute, error) {
	if p.TaskType == "" {
		p.TaskType = models.TaskTypeGeneral
	}
	if !models.ValidTaskType(p.TaskType) {
		return nil, fmt.Errorf("%w: %q", ErrBadTaskType, p.TaskType)
	}
	if !s.providers.Has(p.Provider) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p.Provider)
	}
	if p.Model == "" {
		return nil, ErrModelRequired
	}
	if p.Priority <= 0 {
		p.Priority = 1
	}
	if p.Parameters == nil {
		p.Parameters = map[string]interface{}{}
	}
	params, _ := json.Marshal(p.Parameters)

	row := s.db.QueryRow(ctx,
		`INSERT INTO model_routes (provider, model, task_type, priority, parameters)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider, model, task_type) DO NOTHING
		 RETURNING `+routeColumns,
		p.Provider, p.Model, p.TaskType, p.Priority, params)

	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicateRoute
	}
	if err != nil {
		return nil, err
	}
	return route, nil
}

type UpdateRouteParams struct {
	Priority   *int                   `json:"priority,omitempty"`
	Active     *bool                  `json:"active,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateRouteParams) (*models.ModelRoute, error) {
	query := `UPDATE model_routes SET updated_at = now()`
	args := []interface{}{}
	argIdx := 1

	if p.Priority != nil {
		query += fmt.Sprintf(", priority = $%d", argIdx)
		args = append(args, *p.Priority)
		argIdx++
	}
	if p.Active != nil {
		query += fmt.Sprintf(", active = $%d", argIdx)
		args = append(args, *p.Active)
		argIdx++
	}
	if p.Parameters != nil {
		params, _ := json.Marshal(p.Parameters)
		query += fmt.Sprintf(", parameters = $%d", argIdx)
		args = append(args, params)
		argIdx++
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING ", argIdx) + routeColumns
	args = append(args, id)

	route, err := scanRoute(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM model_routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model route: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// Resolve picks the active route with the lowest priority number for a
// task type, falling back to the general table when the type has no
// routes of its own.
func (s *Service) Resolve(ctx context.Context, taskType string) (*models.ModelRoute, error) {
	if taskType == "" {
		taskType = models.TaskTypeGeneral
	}
	if !models.ValidTaskType(taskType) {
		return nil, fmt.Errorf("%w: %q", ErrBadTaskType, taskType)
	}

	route, err := s.resolveOne(ctx, taskType)
	if errors.Is(err, pgx.ErrNoRows) && taskType != models.TaskTypeGeneral {
		route, err = s.resolveOne(ctx, models.TaskTypeGeneral)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNoRoute, taskType)
	}
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (s *Service) resolveOne(ctx context.Context, taskType string) (*models.ModelRoute, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+routeColumns+` FROM model_routes
		 WHERE task_type = $1 AND active = TRUE
		 ORDER BY priority, created_at LIMIT 1`, taskType)
	return scanRoute(row)
}

// defaultRoutes is the seed table for a fresh database.
var defaultRoutes = []CreateRouteParams{
	{Provider: "openai", Model: "gpt-4o-mini", TaskType: models.TaskTypeGeneral, Priority: 1},
	{Provider: "gemini", Model: "gemini-2.0-flash", TaskType: models.TaskTypeGeneral, Priority: 2},
	{Provider: "anthropic", Model: "claude-sonnet-4-20250514", TaskType: models.TaskTypeCode, Priority: 1},
	{Provider: "deepseek", Model: "deepseek-chat", TaskType: models.TaskTypeCode, Priority: 2},
	{Provider: "anthropic", Model: "claude-opus-4-20250514", TaskType: models.TaskTypeResearch, Priority: 1},
	{Provider: "openai", Model: "gpt-4o", TaskType: models.TaskTypeResearch, Priority: 2},
	{Provider: "openai", Model: "gpt-4o", TaskType: models.TaskTypeAnalysis, Priority: 1},
	{Provider: "qwen", Model: "qwen-plus", TaskType: models.TaskTypeAnalysis, Priority: 2},
}

// SeedDefaults inserts the default routing table, skipping rows that
// already exist. Safe to run on every startup.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, r := range defaultRoutes {
		_, err := s.db.Exec(ctx,
			`INSERT INTO model_routes (provider, model, task_type, priority)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (provider, model, task_type) DO NOTHING`,
			r.Provider, r.Model, r.TaskType, r.Priority)
		if err != nil {
			return fmt.Errorf("seed route %s/%s: %w", r.Provider, r.Model, err)
		}
	}
	return nil
}

func scanRoute(row pgx.Row) (*models.ModelRoute, error) {
	var r models.ModelRoute
	err := row.Scan(&r.ID, &r.Provider, &r.Model, &r.TaskType, &r.Priority,
		&r.Parameters, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan model route: %w", err)
	}
	return &r, nil
}
