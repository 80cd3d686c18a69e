// Package llm adapts third-party model APIs behind one Provider
// interface. Adapters hold no credentials; the API key travels in each
// request and the client is built per call.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Provider is a single upstream LLM service.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
	Models() []string
}

// CompletionRequest is the uniform input every adapter accepts. The
// API key is carried per request and never serialized.
type CompletionRequest struct {
	APIKey       string  `json:"-"`
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// CompletionResponse is the uniform output from any adapter.
type CompletionResponse struct {
	ID           string  `json:"id,omitempty"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// ModelInfo describes one model an adapter serves.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Upstream calls share one generous timeout. Long completions are
// normal; hung connections are not.
const requestTimeout = 120 * time.Second

// sharedHTTPClient backs every adapter, SDK-based or raw.
var sharedHTTPClient = &http.Client{Timeout: requestTimeout}
