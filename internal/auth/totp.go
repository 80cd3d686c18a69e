package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp/totp"
)

const totpIssuer = "ROTZ Coder"

// TOTPEnrollment is handed to the client during setup. The secret is
// not persisted until the client echoes it back with a valid code.
type TOTPEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRPNG  string `json:"qr_png_base64"`
}

func newTOTPEnrollment(email string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: email,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("render totp qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}

	return &TOTPEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRPNG:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// validTOTPCode checks a 6-digit code against a secret. The library
// default allows one 30-second step of clock skew either way.
func validTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
