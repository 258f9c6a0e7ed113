package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/oauth2"
)

// PKCE holds the verifier/challenge/state triple for a single authorization
// attempt. A fresh triple is generated per login and never persisted.
type PKCE struct {
	Verifier  string
	Challenge string
	State     string
}

// NewPKCE generates a fresh PKCE triple.
func NewPKCE() (PKCE, error) {
	verifier := oauth2.GenerateVerifier()

	state, err := newState()
	if err != nil {
		return PKCE{}, fmt.Errorf("generating state: %w", err)
	}

	return PKCE{
		Verifier:  verifier,
		Challenge: ChallengeFrom(verifier),
		State:     state,
	}, nil
}

// ChallengeFrom derives the S256 code challenge for a verifier: the SHA-256
// digest of its raw bytes, URL-safe base64 without padding. Deterministic for
// a given verifier.
func ChallengeFrom(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// newState returns 32 cryptographically random bytes, hex-encoded.
func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
