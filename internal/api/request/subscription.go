package request

// CreateSubscription initializes a subscription. The authenticated caller
// must be the owner; prepaid pulls the first period inside initialization.
type CreateSubscription struct {
	Recipient             string `json:"recipient" validate:"required"`
	OwnerFundsAccount     string `json:"owner_funds_account" validate:"required,uuid4"`
	RecipientFundsAccount string `json:"recipient_funds_account" validate:"required,uuid4"`
	FundType              string `json:"fund_type" validate:"required"`
	AmountPerPeriod       uint64 `json:"amount_per_period" validate:"required,gt=0"`
	IntervalSeconds       int64  `json:"interval_seconds" validate:"gte=0"`
	ExpiresAt             *int64 `json:"expires_at"`
	Prepaid               bool   `json:"prepaid"`
}

// ChargeSubscription presents the funds accounts for a charge; both must
// match the accounts recorded at initialization.
type ChargeSubscription struct {
	OwnerFundsAccount     string `json:"owner_funds_account" validate:"required,uuid4"`
	RecipientFundsAccount string `json:"recipient_funds_account" validate:"required,uuid4"`
}

// UpdateSubscription carries owner changes to future charge parameters.
// Omitted fields are untouched; clear_expires_at removes the expiry.
type UpdateSubscription struct {
	AmountPerPeriod *uint64 `json:"amount_per_period" validate:"omitempty,gt=0"`
	IntervalSeconds *int64  `json:"interval_seconds" validate:"omitempty,gte=0"`
	ExpiresAt       *int64  `json:"expires_at"`
	ClearExpiresAt  bool    `json:"clear_expires_at"`
}
