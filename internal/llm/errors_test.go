package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   error
	}{
		{401, ErrInvalidAPIKey},
		{403, ErrInvalidAPIKey},
		{404, ErrModelNotFound},
		{429, ErrRateLimited},
		{500, ErrUpstream},
		{502, ErrUpstream},
		{400, ErrUpstream},
	}
	for _, tc := range cases {
		if got := classifyStatus(tc.status); !errors.Is(got, tc.want) {
			t.Errorf("classifyStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestWrapHTTPStatus(t *testing.T) {
	t.Parallel()

	err := wrapHTTPStatus("gemini", 429, `{"error":"quota"}`)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if !strings.Contains(err.Error(), "gemini") {
		t.Errorf("error %q should name the provider", err)
	}

	err = wrapHTTPStatus("qwen", 503, "")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}
