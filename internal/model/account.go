package model

import "time"

// FundsAccount holds a balance of one fund type on behalf of an owner.
type FundsAccount struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner" db:"owner"`
	FundType  string    `json:"fund_type" db:"fund_type"`
	Balance   uint64    `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Allowance is a standing permission for a delegate to move up to Remaining
// units out of a funds account without the owner signing each transfer.
type Allowance struct {
	AccountID string    `json:"account_id" db:"account_id"`
	Delegate  string    `json:"delegate" db:"delegate"`
	Remaining uint64    `json:"remaining" db:"remaining"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
