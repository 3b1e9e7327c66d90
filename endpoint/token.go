package endpoint

import (
	"crypto/rand"
	"encoding/hex"
)

// hookTokenLen is the fixed length of a hook token in hex characters.
const hookTokenLen = 24

// GenerateHookToken creates a cryptographically random, URL-safe, fixed
// length hook token: 24 lowercase hex characters (12 random bytes).
func GenerateHookToken() string {
	b := make([]byte, hookTokenLen/2)
	if _, err := rand.Read(b); err != nil {
		panic("endpoint: failed to generate random hook token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
