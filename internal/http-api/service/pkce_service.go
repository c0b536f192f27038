package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// PKCE = Proof Key for Code Exchange
// PKCEService defines methods for handling PKCE-related operations
// such as generating and validating code challenges and verifiers.

type PKCEService interface {
	// gen a 32-byte random value and encode with URL-safe base64
	GenerateCodeVerifier() (string, error)
	// compute SHA256(verifier) and base64url-encode the result.
	GenerateCodeChallenge(verifier string) string
	// Verify that the provided verifier matches the stored challenge
	VerifyCodeChallenge(verifier, challenge string) bool
}

type pkceService struct{}

func NewPKCEService() PKCEService {
	return &pkceService{}
}

// GenerateCodeVerifier returns 32 bytes from crypto/rand encoded with
// unpadded URL-safe base64: 43 characters, enough entropy that a verifier
// never repeats across authorization attempts.
func (s *pkceService) GenerateCodeVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateCodeChallenge hashes the verifier's ASCII bytes with SHA-256 and
// encodes the digest with unpadded URL-safe base64 (the S256 method).
func (s *pkceService) GenerateCodeChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// VerifyCodeChallenge recomputes the challenge and compares in constant time.
func (s *pkceService) VerifyCodeChallenge(verifier, challenge string) bool {
	expected := s.GenerateCodeChallenge(verifier)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}
