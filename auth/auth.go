// Package auth checks the single shared admin secret.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HeaderName carries the admin secret on every protected request.
const HeaderName = "X-Admin-Auth"

// Verifier compares a submitted secret with the configured one. With a
// bcrypt hash configured the plain password is ignored.
type Verifier struct {
	password []byte
	hash     []byte
}

func NewVerifier(password, hash string) *Verifier {
	v := &Verifier{}
	if hash = strings.TrimSpace(hash); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			slog.Error("ADMIN_PASSWORD_HASH is not a bcrypt hash; ignoring it", "error", err)
		} else {
			v.hash = []byte(hash)
		}
	}
	if v.hash == nil && password != "" {
		v.password = []byte(password)
	}
	if !v.Configured() {
		slog.Warn("No admin secret configured; every admin request will be rejected")
	}
	return v
}

func (v *Verifier) Configured() bool {
	return len(v.hash) > 0 || len(v.password) > 0
}

// Verify reports whether submitted is the admin secret. An empty submission
// or an unconfigured verifier never matches.
func (v *Verifier) Verify(submitted string) bool {
	if submitted == "" || !v.Configured() {
		return false
	}
	if len(v.hash) > 0 {
		return bcrypt.CompareHashAndPassword(v.hash, []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare(v.password, []byte(submitted)) == 1
}

// HashPassword produces a value suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
