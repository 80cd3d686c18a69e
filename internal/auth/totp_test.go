package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestTOTPEnrollment(t *testing.T) {
	t.Parallel()

	enr, err := newTOTPEnrollment("user@example.com")
	if err != nil {
		t.Fatalf("newTOTPEnrollment: %v", err)
	}

	if enr.Secret == "" {
		t.Fatal("empty secret")
	}
	if !strings.HasPrefix(enr.URL, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URL: %s", enr.URL)
	}
	if !strings.Contains(enr.URL, "user%40example.com") && !strings.Contains(enr.URL, "user@example.com") {
		t.Fatalf("account missing from URL: %s", enr.URL)
	}
	if _, err := base64.StdEncoding.DecodeString(enr.QRPNG); err != nil {
		t.Fatalf("QR is not valid base64: %v", err)
	}
}

func TestValidTOTPCode(t *testing.T) {
	t.Parallel()

	enr, err := newTOTPEnrollment("user@example.com")
	if err != nil {
		t.Fatalf("newTOTPEnrollment: %v", err)
	}

	code, err := totp.GenerateCode(enr.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !validTOTPCode(enr.Secret, code) {
		t.Fatal("current code rejected")
	}

	if validTOTPCode(enr.Secret, wrongCode(t, enr.Secret)) {
		t.Fatal("wrong code accepted")
	}
	if validTOTPCode(enr.Secret, "") {
		t.Fatal("empty code accepted")
	}
}

// wrongCode returns a six-digit code that is valid for none of the
// accepted time steps, so the negative test cannot flake.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	accepted := map[string]bool{}
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := totp.GenerateCode(secret, now.Add(offset))
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		accepted[code] = true
	}

	for _, candidate := range []string{"000000", "111111", "222222", "333333"} {
		if !accepted[candidate] {
			return candidate
		}
	}
	t.Fatal("no unused candidate code")
	return ""
}
