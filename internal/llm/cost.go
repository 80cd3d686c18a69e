package llm

// costPerToken stores per-1K-token pricing for known models.
// Prices in USD per 1K tokens: [input, output].
var costPerToken = map[string][2]float64{
	// OpenAI
	"gpt-4":         {0.03, 0.06},
	"gpt-4-turbo":   {0.01, 0.03},
	"gpt-4o":        {0.005, 0.015},
	"gpt-4o-mini":   {0.00015, 0.0006},
	"gpt-3.5-turbo": {0.0005, 0.0015},
	"o1-mini":       {0.003, 0.012},

	// Anthropic
	"claude-sonnet-4-20250514":  {0.003, 0.015},
	"claude-opus-4-20250514":    {0.015, 0.075},
	"claude-3-5-haiku-20241022": {0.0008, 0.004},
	"claude-3-opus-20240229":    {0.015, 0.075},

	// DeepSeek
	"deepseek-chat":     {0.00027, 0.0011},
	"deepseek-reasoner": {0.00055, 0.00219},

	// Gemini
	"gemini-2.0-flash": {0.0001, 0.0004},
	"gemini-1.5-pro":   {0.00125, 0.005},
	"gemini-1.5-flash": {0.000075, 0.0003},

	// Qwen (DashScope list prices)
	"qwen-max":   {0.0024, 0.0096},
	"qwen-plus":  {0.0004, 0.0012},
	"qwen-turbo": {0.00005, 0.0002},

	// Grok
	"grok-2-latest": {0.002, 0.01},
	"grok-beta":     {0.005, 0.015},
}

// CalculateCost returns the USD cost of a call, or 0 for models with
// no known price (OpenRouter routes price server-side, for instance).
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := costPerToken[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1000.0 * prices[0]
	outputCost := float64(outputTokens) / 1000.0 * prices[1]
	return inputCost + outputCost
}

// EstimateTokens approximates token count at four characters per
// token, used when a provider omits usage figures.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
