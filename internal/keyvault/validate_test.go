package keyvault

import (
	"errors"
	"testing"
)

func TestValidateKeyFormat(t *testing.T) {
	t.Parallel()

	valid := []struct {
		provider string
		key      string
	}{
		{"openai", "sk-proj-abcdefghijklmnopqrstuvwx"},
		{"openai", "sk-abcdefghijklmnopqrstuvwxyz"},
		{"anthropic", "sk-ant-REDACTED"},
		{"deepseek", "sk-abcdefghijklmnopqrstuvwxyz"},
		{"openrouter", "sk-or-v1-abcdefghijklmnopqrst"},
		{"grok", "xai-abcdefghijklmnopqrstuvwxyz"},
		{"gemini", "AIzaSyAbCdEfGhIjKlMnOpQrStUv"},
		{"qwen", "sk-abcdefghijklmnopqrstuvwxyz"},
	}
	for _, tc := range valid {
		if err := ValidateKeyFormat(tc.provider, tc.key); err != nil {
			t.Errorf("ValidateKeyFormat(%q, %q) = %v, want nil", tc.provider, tc.key, err)
		}
	}

	invalid := []struct {
		provider string
		key      string
	}{
		{"openai", ""},
		{"openai", "sk-short"},
		{"openai", "pk-abcdefghijklmnopqrstuvwxyz"},
		{"anthropic", "sk-abcdefghijklmnopqrstuvwxyz"},
		{"anthropic", ""},
		{"gemini", "short"},
		{"qwen", ""},
	}
	for _, tc := range invalid {
		err := ValidateKeyFormat(tc.provider, tc.key)
		if !errors.Is(err, ErrBadKeyFormat) {
			t.Errorf("ValidateKeyFormat(%q, %q) = %v, want ErrBadKeyFormat", tc.provider, tc.key, err)
		}
	}
}

func TestMaskKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  string
		want string
	}{
		{"sk-abcdefghijklmnopqrstuvwxyz", "sk-a...wxyz"},
		{"sk-ant-api03-secretsecret", "sk-a...cret"},
		{"AIzaSyAbCdEf", "AIza...CdEf"},
		{"tiny", "****"},
		{"12345678", "****"},
		{"", "****"},
	}
	for _, tc := range cases {
		if got := MaskKey(tc.key); got != tc.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
