package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// addressTag namespaces subscription addresses so derived IDs can never
// collide with other address families sharing the same hash space.
const addressTag = "subscription"

// SubscriptionAddress derives the deterministic record ID for an
// (owner, recipient) pair. The same pair always maps to the same address,
// which combined with the primary key on subscriptions guarantees at most
// one record per pair without a separate index.
func SubscriptionAddress(owner, recipient string) string {
	h := sha256.New()
	h.Write([]byte(addressTag))
	h.Write([]byte{0})
	h.Write([]byte(owner))
	h.Write([]byte{0})
	h.Write([]byte(recipient))
	return hex.EncodeToString(h.Sum(nil))
}
