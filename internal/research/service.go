// Package research runs prompts against LLM providers and keeps the
// per-user task history. Every run is a task row that moves through
// pending, processing, and a terminal completed or failed state.
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotzhost/rotzcoder/internal/keyvault"
	"github.com/rotzhost/rotzcoder/internal/llm"
	"github.com/rotzhost/rotzcoder/internal/models"
	"github.com/rotzhost/rotzcoder/internal/routing"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyPrompt  = errors.New("prompt is required")
	ErrNoAPIKey     = errors.New("no API key available for provider")
)

// keySource yields a user's decrypted provider key. The keyvault
// service implements it.
type keySource interface {
	Get(ctx context.Context, userID uuid.UUID, provider string) (string, error)
}

type routeResolver interface {
	Resolve(ctx context.Context, taskType string) (*models.ModelRoute, error)
}

type recorder interface {
	Event(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{})
	Usage(ctx context.Context, u models.UsageLog)
}

// Defaults names the provider and model used when neither the request
// nor the routing table decides.
type Defaults struct {
	Provider string
	Model    string
}

type Service struct {
	db        *pgxpool.Pool
	registry  *llm.Registry
	routes    routeResolver
	keys      keySource
	serverKey func(provider string) string
	defaults  Defaults
	collector recorder
}

func NewService(db *pgxpool.Pool, registry *llm.Registry, routes routeResolver, keys keySource, serverKey func(string) string, defaults Defaults) *Service {
	return &Service{
		db:        db,
		registry:  registry,
		routes:    routes,
		keys:      keys,
		serverKey: serverKey,
		defaults:  defaults,
	}
}

func (s *Service) WithCollector(r recorder) *Service { s.collector = r; return s }

type RunRequest struct {
	Prompt       string  `json:"prompt"`
	TaskType     string  `json:"task_type,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	Model        string  `json:"model,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// Run executes one prompt end to end: pick provider and model, find a
// key, record the task, call the adapter, persist the outcome. On an
// adapter failure the task row records it and is returned alongside
// the error.
func (s *Service) Run(ctx context.Context, userID uuid.UUID, req RunRequest) (*models.ResearchTask, error) {
	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if req.TaskType == "" {
		req.TaskType = models.TaskTypeGeneral
	}
	if !models.ValidTaskType(req.TaskType) {
		return nil, fmt.Errorf("%w: %q", routing.ErrBadTaskType, req.TaskType)
	}

	provider, model, err := s.resolveTarget(ctx, &req)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.resolveKey(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	task, err := s.createTask(ctx, userID, req, provider, model)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, task.ID, models.TaskProcessing); err != nil {
		return nil, err
	}
	task.Status = models.TaskProcessing

	adapter, err := s.registry.Get(provider)
	if err != nil {
		// Resolution already checked the registry, so this means the
		// routing table names a provider we no longer serve.
		s.finishFailed(ctx, task, err)
		return task, err
	}

	resp, callErr := adapter.Complete(ctx, llm.CompletionRequest{
		APIKey:       apiKey,
		Model:        model,
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if callErr != nil {
		s.finishFailed(ctx, task, callErr)
		return task, callErr
	}

	s.finishCompleted(ctx, task, resp)
	return task, nil
}

// resolveTarget picks the provider and model: explicit request fields
// win, then the routing table, then config defaults. Route parameters
// fill in temperature and max tokens the request left unset.
func (s *Service) resolveTarget(ctx context.Context, req *RunRequest) (string, string, error) {
	if req.Provider != "" {
		p, err := s.registry.Get(req.Provider)
		if err != nil {
			return "", "", err
		}
		model := req.Model
		if model == "" {
			model = p.Models()[0]
		}
		return req.Provider, model, nil
	}

	route, err := s.routes.Resolve(ctx, req.TaskType)
	if errors.Is(err, routing.ErrNoRoute) {
		return s.defaults.Provider, s.defaults.Model, nil
	}
	if err != nil {
		return "", "", err
	}

	if req.Temperature == 0 {
		if t, ok := route.Parameters["temperature"].(float64); ok {
			req.Temperature = t
		}
	}
	if req.MaxTokens == 0 {
		if m, ok := route.Parameters["max_tokens"].(float64); ok {
			req.MaxTokens = int(m)
		}
	}
	return route.Provider, route.Model, nil
}

// resolveKey prefers the user's vaulted key, then the server's
// configured key. Decryption failures surface; they mean the vault
// row is unreadable, not absent.
func (s *Service) resolveKey(ctx context.Context, userID uuid.UUID, provider string) (string, error) {
	key, err := s.keys.Get(ctx, userID, provider)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, keyvault.ErrKeyNotFound) {
		return "", err
	}
	if k := s.serverKey(provider); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoAPIKey, provider)
}

func (s *Service) createTask(ctx context.Context, userID uuid.UUID, req RunRequest, provider, model string) (*models.ResearchTask, error) {
	task := &models.ResearchTask{
		UserID:   userID,
		Prompt:   req.Prompt,
		TaskType: req.TaskType,
		Provider: provider,
		Model:    model,
		Status:   models.TaskPending,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO research_tasks (user_id, prompt, task_type, provider, model, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		userID, req.Prompt, req.TaskType, provider, model, models.TaskPending,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE research_tasks SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

func (s *Service) finishCompleted(ctx context.Context, task *models.ResearchTask, resp *llm.CompletionResponse) {
	now := time.Now()
	task.Status = models.TaskCompleted
	task.Result = &resp.Content
	task.TokensUsed = resp.TotalTokens
	task.ProcessingMs = resp.LatencyMs
	task.CompletedAt = &now

	_, err := s.db.Exec(ctx,
		`UPDATE research_tasks
		 SET status = $2, result = $3, tokens_used = $4, processing_ms = $5, completed_at = $6
		 WHERE id = $1`,
		task.ID, task.Status, resp.Content, resp.TotalTokens, resp.LatencyMs, now)
	if err != nil {
		// The completion happened; a lost row update should not turn
		// it into a failure for the caller.
		task.ErrorMessage = ptr("result not persisted")
	}

	if s.collector != nil {
		s.collector.Usage(ctx, models.UsageLog{
			UserID:       task.UserID,
			Provider:     resp.Provider,
			Model:        resp.Model,
			TaskType:     task.TaskType,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			CostUSD:      resp.CostUSD,
			LatencyMs:    resp.LatencyMs,
			Success:      true,
		})
		s.collector.Event(ctx, models.EventTaskCompleted, &task.UserID, map[string]interface{}{
			"task_id": task.ID, "provider": resp.Provider, "model": resp.Model, "task_type": task.TaskType,
		})
	}
}

func (s *Service) finishFailed(ctx context.Context, task *models.ResearchTask, callErr error) {
	now := time.Now()
	kind := errorKind(callErr)
	msg := truncate(callErr.Error(), 500)
	task.Status = models.TaskFailed
	task.ErrorMessage = &msg
	task.CompletedAt = &now

	_, err := s.db.Exec(ctx,
		`UPDATE research_tasks
		 SET status = $2, error_message = $3, completed_at = $4
		 WHERE id = $1`,
		task.ID, task.Status, msg, now)
	if err != nil {
		task.ErrorMessage = ptr(msg + " (not persisted)")
	}

	if s.collector != nil {
		s.collector.Usage(ctx, models.UsageLog{
			UserID:    task.UserID,
			Provider:  task.Provider,
			Model:     task.Model,
			TaskType:  task.TaskType,
			Success:   false,
			ErrorKind: &kind,
		})
		s.collector.Event(ctx, models.EventTaskFailed, &task.UserID, map[string]interface{}{
			"task_id": task.ID, "provider": task.Provider, "model": task.Model, "error_kind": kind,
		})
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ResearchTask, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, prompt, task_type, provider, model, status,
		        result, error_message, tokens_used, processing_ms, created_at, completed_at
		 FROM research_tasks WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.ResearchTask
	for rows.Next() {
		var t models.ResearchTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.Prompt, &t.TaskType, &t.Provider, &t.Model,
			&t.Status, &t.Result, &t.ErrorMessage, &t.TokensUsed, &t.ProcessingMs,
			&t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, userID, taskID uuid.UUID) (*models.ResearchTask, error) {
	var t models.ResearchTask
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, prompt, task_type, provider, model, status,
		        result, error_message, tokens_used, processing_ms, created_at, completed_at
		 FROM research_tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	).Scan(&t.ID, &t.UserID, &t.Prompt, &t.TaskType, &t.Provider, &t.Model,
		&t.Status, &t.Result, &t.ErrorMessage, &t.TokensUsed, &t.ProcessingMs,
		&t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return &t, nil
}

// errorKind buckets an adapter error for the usage log.
func errorKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return "auth"
	case errors.Is(err, llm.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "upstream"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func ptr(s string) *string { return &s }
