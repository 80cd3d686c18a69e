package secretbox

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testBox(t *testing.T) *Box {
	t.Helper()
	b, err := New(NewRandomKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()
	b := testBox(t)

	plaintexts := [][]byte{
		[]byte("sk-proj-abc123def456"),
		[]byte(""),
		[]byte("x"),
		bytes.Repeat([]byte{0x00, 0xff}, 512),
	}

	for _, want := range plaintexts {
		ciphertext, nonce, err := b.Encrypt(want)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		got, err := b.Decrypt(ciphertext, nonce)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("round trip mismatch: got %q want %q", got, want)
		}
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	t.Parallel()
	b := testBox(t)

	c1, n1, err := b.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	c2, n2, err := b.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("nonce reused across encryptions")
	}
	if bytes.Equal(c1, c2) {
		t.Fatal("identical ciphertexts for identical plaintexts")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	t.Parallel()
	b := testBox(t)

	ciphertext, nonce, err := b.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	ciphertext[0] ^= 0x01
	if _, err := b.Decrypt(ciphertext, nonce); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("tampered ciphertext: got %v, want ErrDecrypt", err)
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	t.Parallel()
	b := testBox(t)

	ciphertext, nonce, err := b.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := b.Decrypt(ciphertext[:3], nonce); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("truncated ciphertext: got %v, want ErrDecrypt", err)
	}
	if _, err := b.Decrypt(nil, nonce); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("nil ciphertext: got %v, want ErrDecrypt", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	t.Parallel()

	ciphertext, nonce, err := testBox(t).Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	other := testBox(t)
	if _, err := other.Decrypt(ciphertext, nonce); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("wrong key: got %v, want ErrDecrypt", err)
	}
}

func TestDecryptBadNonce(t *testing.T) {
	t.Parallel()
	b := testBox(t)

	ciphertext, nonce, err := b.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := b.Decrypt(ciphertext, nonce[:4]); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("short nonce: got %v, want ErrDecrypt", err)
	}

	wrong := make([]byte, len(nonce))
	if _, err := rand.Read(wrong); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if _, err := b.Decrypt(ciphertext, wrong); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("wrong nonce: got %v, want ErrDecrypt", err)
	}
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := New(make([]byte, n)); !errors.Is(err, ErrBadKey) {
			t.Fatalf("key length %d: got %v, want ErrBadKey", n, err)
		}
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key := NewRandomKey()

	got, err := ParseKey(EncodeKey(key))
	if err != nil {
		t.Fatalf("ParseKey base64: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("base64 key did not round trip")
	}

	hexForm := make([]byte, 64)
	const hexDigits = "0123456789abcdef"
	for i := range hexForm {
		hexForm[i] = hexDigits[i%16]
	}
	if _, err := ParseKey(string(hexForm)); err != nil {
		t.Fatalf("ParseKey hex: %v", err)
	}

	for _, bad := range []string{"", "short", "not base64 at all!!!", EncodeKey(key[:16])} {
		if _, err := ParseKey(bad); !errors.Is(err, ErrBadKey) {
			t.Fatalf("ParseKey(%q): got %v, want ErrBadKey", bad, err)
		}
	}
}
