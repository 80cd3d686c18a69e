// Package queue defines the background task types shared between the
// enqueueing side and the worker. All tasks are maintenance jobs; the
// request path never waits on the queue.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeSessionsPurge   = "sessions:purge"
	TypeAnalyticsRollup = "analytics:rollup"
	TypeAnalyticsPrune  = "analytics:prune"
)

const dayFormat = "2006-01-02"

// RollupPayload names the calendar day to aggregate. An empty Day means
// the handler rolls up today and yesterday, which closes the midnight
// gap for a worker that only runs hourly.
type RollupPayload struct {
	Day string `json:"day,omitempty"`
}

// Days resolves the payload into the concrete days to roll up.
func (p RollupPayload) Days(now time.Time) ([]time.Time, error) {
	if p.Day == "" {
		return []time.Time{now, now.AddDate(0, 0, -1)}, nil
	}
	day, err := time.Parse(dayFormat, p.Day)
	if err != nil {
		return nil, fmt.Errorf("parse rollup day %q: %w", p.Day, err)
	}
	return []time.Time{day}, nil
}

func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TypeSessionsPurge, nil)
}

func NewRollupTask(p RollupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal rollup payload: %w", err)
	}
	return asynq.NewTask(TypeAnalyticsRollup, data), nil
}

func NewPruneTask() *asynq.Task {
	return asynq.NewTask(TypeAnalyticsPrune, nil)
}
