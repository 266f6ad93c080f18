// Package credential hashes and verifies the short shared secrets (join
// PINs, elevated-guest PINs) stored on a club.
//
// Stored values use the "salt:hash" format where hash is
// hex(sha256(salt + "::" + secret)). A bare hex(sha256(secret)) is the
// legacy format and is still accepted by Verify.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const saltBytes = 16

// Hash returns a freshly salted hash of secret.
func Hash(secret string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return HashWithSalt(hex.EncodeToString(salt), secret), nil
}

// HashWithSalt is Hash with a caller-provided salt.
func HashWithSalt(salt, secret string) string {
	return salt + ":" + digest(salt+"::"+secret)
}

// LegacyHash is the unsalted format written by older hosts.
func LegacyHash(secret string) string {
	return digest(secret)
}

// Verify reports whether secret matches the stored value. An empty stored
// value never matches.
func Verify(stored, secret string) bool {
	if stored == "" {
		return false
	}
	salt, want, salted := strings.Cut(stored, ":")
	if !salted {
		want = stored
		return equal(want, digest(secret))
	}
	return equal(want, digest(salt+"::"+secret))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(b)) == 1
}
