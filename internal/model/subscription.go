package model

import "time"

// Subscription is a standing authorization for a delegate to pull a fixed
// amount from the owner's funds account on a minimum interval. Its ID is
// derived deterministically from (owner, recipient), so at most one record
// can exist per pair.
type Subscription struct {
	ID                    string `json:"id" db:"id"`
	Owner                 string `json:"owner" db:"owner"`
	Recipient             string `json:"recipient" db:"recipient"`
	OwnerFundsAccount     string `json:"owner_funds_account" db:"owner_funds_account"`
	RecipientFundsAccount string `json:"recipient_funds_account" db:"recipient_funds_account"`
	FundType              string `json:"fund_type" db:"fund_type"`
	AmountPerPeriod       uint64 `json:"amount_per_period" db:"amount_per_period"`
	IntervalSeconds       int64  `json:"interval_seconds" db:"interval_seconds"`
	// LastChargeTimestamp is epoch seconds of the most recent successful
	// charge. Zero means the subscription has never been charged, so the
	// first charge is allowed at any time.
	LastChargeTimestamp int64  `json:"last_charge_timestamp" db:"last_charge_timestamp"`
	CreatedAt           int64  `json:"created_at" db:"created_at"`
	ExpiresAt           *int64 `json:"expires_at,omitempty" db:"expires_at"`
	IsActive            bool   `json:"is_active" db:"is_active"`
	TotalCharged        uint64 `json:"total_charged" db:"total_charged"`
	// StorageDeposit is held on the record at initialization and refunded
	// to the owner's funds account when the record is removed.
	StorageDeposit uint64    `json:"storage_deposit" db:"storage_deposit"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the subscription's expiry has been reached at now
// (epoch seconds). A nil ExpiresAt never expires.
func (s *Subscription) Expired(now int64) bool {
	return s.ExpiresAt != nil && now >= *s.ExpiresAt
}

// ChargeDue reports whether the minimum interval since the last charge has
// elapsed at now (epoch seconds).
func (s *Subscription) ChargeDue(now int64) bool {
	return now-s.LastChargeTimestamp >= s.IntervalSeconds
}
