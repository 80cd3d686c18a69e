package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const qwenGenerateURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

type QwenProvider struct{}

func NewQwenProvider() *QwenProvider { return &QwenProvider{} }

func (p *QwenProvider) Name() string { return "qwen" }

func (p *QwenProvider) Models() []string {
	return []string{"qwen-max", "qwen-plus", "qwen-turbo"}
}

type qwenMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type qwenGenerateReq struct {
	Model      string     `json:"model"`
	Input      qwenInput  `json:"input"`
	Parameters qwenParams `json:"parameters"`
}

type qwenInput struct {
	Messages []qwenMessage `json:"messages"`
}

type qwenParams struct {
	ResultFormat string  `json:"result_format"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

type qwenGenerateResp struct {
	RequestID string `json:"request_id"`
	Output    struct {
		Choices []struct {
			Message qwenMessage `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *QwenProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	var msgs []qwenMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, qwenMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, qwenMessage{Role: "user", Content: req.Prompt})

	qReq := qwenGenerateReq{
		Model: req.Model,
		Input: qwenInput{Messages: msgs},
		Parameters: qwenParams{
			ResultFormat: "message",
			Temperature:  req.Temperature,
			MaxTokens:    req.MaxTokens,
		},
	}

	body, _ := json.Marshal(qReq)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", qwenGenerateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("qwen request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := sharedHTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("qwen: %w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapHTTPStatus("qwen", resp.StatusCode, string(snippet))
	}

	var qResp qwenGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&qResp); err != nil {
		return nil, fmt.Errorf("qwen decode: %w", err)
	}

	content := ""
	if len(qResp.Output.Choices) > 0 {
		content = qResp.Output.Choices[0].Message.Content
	}

	inputTokens := qResp.Usage.InputTokens
	outputTokens := qResp.Usage.OutputTokens
	if inputTokens == 0 && outputTokens == 0 {
		inputTokens = EstimateTokens(req.SystemPrompt + req.Prompt)
		outputTokens = EstimateTokens(content)
	}

	return &CompletionResponse{
		ID:           qResp.RequestID,
		Provider:     "qwen",
		Model:        req.Model,
		Content:      content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      CalculateCost(req.Model, inputTokens, outputTokens),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}
