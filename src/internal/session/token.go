package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateToken returns n random bytes encoded as unpadded URL-safe base64.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
