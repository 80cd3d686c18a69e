package llm

import (
	"math"
	"testing"
)

func TestCalculateCost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model        string
		input, outpt int
		want         float64
	}{
		{"gpt-4o", 1000, 1000, 0.02},
		{"gpt-4o-mini", 2000, 500, 0.0006},
		{"claude-sonnet-4-20250514", 1000, 0, 0.003},
		{"deepseek-chat", 0, 0, 0},
		{"totally-unknown-model", 5000, 5000, 0},
		{"openai/gpt-4o", 1000, 1000, 0}, // openrouter ids are priced upstream
	}
	for _, tc := range cases {
		got := CalculateCost(tc.model, tc.input, tc.outpt)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("CalculateCost(%q, %d, %d) = %v, want %v", tc.model, tc.input, tc.outpt, got, tc.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcdefgh", 2},
		{"hello world, this is a prompt", 7},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
