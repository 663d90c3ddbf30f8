package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateID mints an opaque session id for clients that want a
// server-generated token. Minting does not create the session; that
// happens lazily on the first draw.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
