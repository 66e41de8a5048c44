package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DisplayClaims are the human-facing fields of an identity credential, used
// only for prompt/log lines. Trust decisions stay with the backend, which
// verifies the credential itself.
type DisplayClaims struct {
	Name  string
	Email string
}

// ParseDisplayClaims extracts name and email from a raw ID token without
// verifying its signature. The credential stays opaque for everything else.
func ParseDisplayClaims(rawCredential string) (DisplayClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawCredential, claims); err != nil {
		return DisplayClaims{}, fmt.Errorf("parse identity credential: %w", err)
	}

	dc := DisplayClaims{}
	if v, ok := claims["name"].(string); ok {
		dc.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		dc.Email = v
	}
	return dc, nil
}
