package auth

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// sessionTokenBytes is the entropy of a session token
const sessionTokenBytes = 32

// TokenDigest returns the hex BLAKE2b-256 digest of a session token.
// Stores only ever see digests, never raw tokens.
func TokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
