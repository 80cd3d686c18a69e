package models

import (
	"time"

	"github.com/google/uuid"
)

// Task types a completion can be routed by.
const (
	TaskTypeGeneral  = "general"
	TaskTypeCode     = "code"
	TaskTypeResearch = "research"
	TaskTypeAnalysis = "analysis"
)

func ValidTaskType(t string) bool {
	switch t {
	case TaskTypeGeneral, TaskTypeCode, TaskTypeResearch, TaskTypeAnalysis:
		return true
	}
	return false
}

// ModelRoute maps a task type to a provider/model choice. When a
// completion request names no provider, the highest-priority active
// route for its task type wins.
type ModelRoute struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	Provider   string                 `json:"provider" db:"provider"`
	Model      string                 `json:"model" db:"model"`
	TaskType   string                 `json:"task_type" db:"task_type"`
	Priority   int                    `json:"priority" db:"priority"`
	Parameters map[string]interface{} `json:"parameters,omitempty" db:"parameters"`
	Active     bool                   `json:"active" db:"active"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at" db:"updated_at"`
}
