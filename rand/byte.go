// Package rand provides small randomness helpers; the Maintenance
// Scheduler uses RandomIntBetweenInclusive for its tick jitter.
package rand

import (
	"crypto/rand"
	"fmt"
)

// Letters is the URL-safe alphanumeric alphabet used by
// GenerateRandomBytes.
const Letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateRandomBytes returns a cryptographically random string of
// the given length, drawn from Letters.
func GenerateRandomBytes(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be a positive integer: %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = Letters[int(buf[i])%len(Letters)]
	}
	return string(buf), nil
}
