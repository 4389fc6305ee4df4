// Package apikey generates, digests, and masks platform API keys.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Prefix marks every key issued by the platform.
const Prefix = "zero_"

// New returns a fresh API key: the platform prefix followed by 43 characters
// of URL-safe base64 from 32 bytes of crypto/rand entropy.
func New() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest returns the hex-encoded SHA-256 of a key. Stores index keys by
// digest so lookups never compare plaintext.
func Digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Mask renders a key safe for logs and terminal output: the first ten and
// last five characters with the middle elided.
func Mask(key string) string {
	if len(key) <= 15 {
		return "*****"
	}
	return key[:10] + "..." + key[len(key)-5:]
}
