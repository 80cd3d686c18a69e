package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// Upstream failures collapse into a small taxonomy so handlers can map
// them to status codes without knowing which provider was called.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidAPIKey   = errors.New("provider rejected the API key")
	ErrModelNotFound   = errors.New("model not found")
	ErrRateLimited     = errors.New("provider rate limit exceeded")
	ErrUpstream        = errors.New("provider request failed")
)

// classifyStatus folds an upstream HTTP status into the taxonomy.
func classifyStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidAPIKey
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// wrapOpenAIErr maps go-openai SDK errors, which also covers the
// OpenAI-compatible providers served through that client.
func wrapOpenAIErr(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: %s", provider, classifyStatus(apiErr.HTTPStatusCode), apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s: %w", provider, classifyStatus(reqErr.HTTPStatusCode))
	}
	return fmt.Errorf("%s: %w: %w", provider, ErrUpstream, err)
}

func wrapAnthropicErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic: %w", classifyStatus(apiErr.StatusCode))
	}
	return fmt.Errorf("anthropic: %w: %w", ErrUpstream, err)
}

// wrapHTTPStatus is for the raw-HTTP adapters, where the status code
// is read straight off the response.
func wrapHTTPStatus(provider string, status int, body string) error {
	if body != "" {
		return fmt.Errorf("%s: %w: %s", provider, classifyStatus(status), body)
	}
	return fmt.Errorf("%s: %w: status %d", provider, classifyStatus(status), status)
}
