package llm

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns the content hash used for embedding-cache keys and
// chunk identity: hex-encoded SHA-256 of the exact text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
