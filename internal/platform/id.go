package platform

import "github.com/google/uuid"

// NewID returns a random UUID string, used for funds accounts, transfers,
// and API keys. Subscription IDs are derived, not random; see
// ledger.SubscriptionAddress.
func NewID() string {
	return uuid.New().String()
}
