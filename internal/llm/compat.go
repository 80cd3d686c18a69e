package llm

import "context"

// DeepSeek, OpenRouter and Grok all expose OpenAI-compatible chat
// endpoints, so each adapter is the shared client pointed at a
// different base URL.

const (
	deepseekBaseURL   = "https://api.deepseek.com/v1"
	openrouterBaseURL = "https://openrouter.ai/api/v1"
	grokBaseURL       = "https://api.x.ai/v1"
)

type DeepSeekProvider struct{}

func NewDeepSeekProvider() *DeepSeekProvider { return &DeepSeekProvider{} }

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) Models() []string {
	return []string{"deepseek-chat", "deepseek-reasoner"}
}

func (p *DeepSeekProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	client := newChatClient(req.APIKey, deepseekBaseURL)
	return completeChat(ctx, client, "deepseek", req)
}

type OpenRouterProvider struct{}

func NewOpenRouterProvider() *OpenRouterProvider { return &OpenRouterProvider{} }

func (p *OpenRouterProvider) Name() string { return "openrouter" }

// Models lists the routes most useful as defaults; OpenRouter itself
// proxies far more and any model id the user supplies is passed along.
func (p *OpenRouterProvider) Models() []string {
	return []string{
		"openai/gpt-4o", "anthropic/claude-sonnet-4", "meta-llama/llama-3.1-70b-instruct",
	}
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	client := newChatClient(req.APIKey, openrouterBaseURL)
	return completeChat(ctx, client, "openrouter", req)
}

type GrokProvider struct{}

func NewGrokProvider() *GrokProvider { return &GrokProvider{} }

func (p *GrokProvider) Name() string { return "grok" }

func (p *GrokProvider) Models() []string {
	return []string{"grok-2-latest", "grok-beta"}
}

func (p *GrokProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	client := newChatClient(req.APIKey, grokBaseURL)
	return completeChat(ctx, client, "grok", req)
}
