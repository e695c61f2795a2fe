package ports

import (
	"time"

	"github.com/google/uuid"
)

// AuthClaims is the verified identity attached to a request.
type AuthClaims struct {
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

// TokenVerifier validates bearer tokens issued by the platform auth service.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}

// Encryption protects bank account numbers at rest. Keys are derived per
// creator so a leaked row cannot be decrypted with another creator's material.
type Encryption interface {
	Encrypt(ownerID string, value string) ([]byte, error)
	Decrypt(ownerID string, payload []byte) (string, error)
}
