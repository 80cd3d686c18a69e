package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey holds one provider credential for one user. The plaintext key
// exists only transiently inside the request that uses it; at rest there
// is only the AES-GCM ciphertext plus nonce, and the display mask.
type APIKey struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Provider   string    `json:"provider" db:"provider"`
	Ciphertext []byte    `json:"-" db:"ciphertext"`
	Nonce      []byte    `json:"-" db:"nonce"`
	Mask       string    `json:"mask" db:"mask"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
