package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the analytics collector.
const (
	EventUserRegistered  = "user_registered"
	EventUserLogin       = "user_login"
	EventPasswordChanged = "password_changed"
	EventTOTPEnabled     = "totp_enabled"
	EventTOTPDisabled    = "totp_disabled"
	EventAPIKeySaved     = "api_key_saved"
	EventAPIKeyDeleted   = "api_key_deleted"
	EventTaskCompleted   = "task_completed"
	EventTaskFailed      = "task_failed"
	EventAdminSetRole    = "admin_set_role"
	EventAdminSetActive  = "admin_set_active"
)

// Event is an append-only analytics record. Rows are never updated;
// the retention worker is the only thing that removes them.
type Event struct {
	ID        uuid.UUID              `json:"id" db:"id"`
	UserID    *uuid.UUID             `json:"user_id,omitempty" db:"user_id"`
	Type      string                 `json:"type" db:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty" db:"payload"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// UsageLog records one completion call against a provider.
type UsageLog struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Provider     string    `json:"provider" db:"provider"`
	Model        string    `json:"model" db:"model"`
	TaskType     string    `json:"task_type" db:"task_type"`
	InputTokens  int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens int       `json:"output_tokens" db:"output_tokens"`
	CostUSD      float64   `json:"cost_usd" db:"cost_usd"`
	LatencyMs    int64     `json:"latency_ms" db:"latency_ms"`
	Success      bool      `json:"success" db:"success"`
	ErrorKind    *string   `json:"error_kind,omitempty" db:"error_kind"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
