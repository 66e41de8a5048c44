package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// newVerifier returns a fresh PKCE code verifier: 32 random bytes,
// base64url-encoded without padding.
func newVerifier() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// challengeS256 derives the S256 code challenge for a verifier.
func challengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
