package store

import (
	"crypto/sha256"
	"fmt"
)

// TextHash returns the hex SHA-256 of text. Searches are indexed by it so
// repeated scans of the same text can be found without comparing bodies.
func TextHash(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}
