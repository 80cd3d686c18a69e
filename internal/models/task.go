package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskPending    = "pending"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// ResearchTask is one completion run: prompt in, result or error out.
type ResearchTask struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Prompt       string     `json:"prompt" db:"prompt"`
	TaskType     string     `json:"task_type" db:"task_type"`
	Provider     string     `json:"provider" db:"provider"`
	Model        string     `json:"model" db:"model"`
	Status       string     `json:"status" db:"status"`
	Result       *string    `json:"result,omitempty" db:"result"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	TokensUsed   int        `json:"tokens_used" db:"tokens_used"`
	ProcessingMs int64      `json:"processing_ms" db:"processing_ms"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
