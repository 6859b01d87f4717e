package purchase

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	paymentReferencePrefix    = "EST"
	allocationReferencePrefix = "ALC"

	// maxReferenceAttempts bounds retries when a generated reference
	// collides with an existing one. With 12 random bytes a collision is
	// effectively a database inconsistency, not a probability problem.
	maxReferenceAttempts = 3
)

func newReference(prefix string) string {
	token := make([]byte, 12)
	if _, err := rand.Read(token); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(token))
}
