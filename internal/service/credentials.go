package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/openmarket/market-server/internal/util"
)

// Credential failure reasons. They are logged for audit only; callers
// always see the generic invalid credentials error.
var (
	ErrMissingFields    = errors.New("missing_fields")
	ErrEmailMismatch    = errors.New("email_mismatch")
	ErrPasswordMismatch = errors.New("password_mismatch")
)

// dummyHash is compared against when no hash is configured so that every
// attempt pays the same bcrypt cost.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z2KNy1P2qMMpXfoyQjxNIAHS"

type CredentialVerifier struct {
	email           string
	passwordHash    string
	plaintextDigest []byte
}

// NewCredentialVerifier builds a verifier for the configured admin. When
// passwordHash is empty the plaintext fallback is used.
func NewCredentialVerifier(email, passwordHash, plaintextPassword string) *CredentialVerifier {
	v := &CredentialVerifier{email: normalizeEmail(email)}
	if passwordHash != "" {
		v.passwordHash = passwordHash
	} else if plaintextPassword != "" {
		v.plaintextDigest = digest(plaintextPassword)
	}
	return v
}

func (v *CredentialVerifier) Verify(email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrMissingFields
	}

	emailOK := subtle.ConstantTimeCompare(digest(email), digest(v.email)) == 1
	passwordOK := v.checkPassword(password)

	if !emailOK {
		return ErrEmailMismatch
	}
	if !passwordOK {
		return ErrPasswordMismatch
	}
	return nil
}

func (v *CredentialVerifier) checkPassword(password string) bool {
	if v.passwordHash != "" {
		return util.CheckPasswordHash(password, v.passwordHash)
	}

	util.CheckPasswordHash(password, dummyHash)
	if v.plaintextDigest == nil {
		return false
	}
	return subtle.ConstantTimeCompare(digest(password), v.plaintextDigest) == 1
}

// digest maps inputs to a fixed length so the comparison time does not depend
// on the length of the configured value.
func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
