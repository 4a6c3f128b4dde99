package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// sessionTokenSize is 256 bits of entropy per token.
const sessionTokenSize = 32

// GenerateSessionToken creates a cryptographically random opaque session token.
// The token carries no claims, it's just random bytes the store resolves back
// to a user. Returns the token string in a base64-urlencoded format.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}
