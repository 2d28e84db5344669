package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HashPassword returns the hex-encoded SHA-256 digest stored in the password_sha256 column.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares a stored digest with the digest of password in constant time.
func CheckPassword(hash, password string) bool {
	return CheckPasswordHash(hash, HashPassword(password))
}

// CheckPasswordHash compares two hex digests in constant time, ignoring hex letter case.
func CheckPasswordHash(stored, candidate string) bool {
	a := []byte(strings.ToLower(strings.TrimSpace(stored)))
	b := []byte(strings.ToLower(strings.TrimSpace(candidate)))
	return subtle.ConstantTimeCompare(a, b) == 1
}
