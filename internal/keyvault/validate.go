package keyvault

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadKeyFormat = errors.New("API key format not recognized")

// ValidateKeyFormat applies the cheap shape checks a provider key must
// pass before it is worth encrypting. It spots paste accidents, not
// invalid credentials; only a real call proves a key works.
func ValidateKeyFormat(provider, key string) error {
	key = strings.TrimSpace(key)
	switch provider {
	case "openai":
		if !strings.HasPrefix(key, "sk-") || len(key) < 20 {
			return fmt.Errorf("%w: openai keys start with sk-", ErrBadKeyFormat)
		}
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("%w: anthropic keys start with sk-ant-", ErrBadKeyFormat)
		}
	default:
		if len(key) < 20 {
			return fmt.Errorf("%w: key looks too short", ErrBadKeyFormat)
		}
	}
	return nil
}

// MaskKey renders the only form of a key that ever leaves the server:
// first four and last four characters.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
