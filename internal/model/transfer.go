package model

import "time"

// Transfer kinds.
const (
	TransferKindCharge  = "charge"
	TransferKindDeposit = "deposit"
	TransferKindRent    = "rent"
	TransferKindRefund  = "refund"
)

// Transfer is one committed ledger movement. Rows are append-only; the
// kind distinguishes subscription charges from operator deposits and
// storage-deposit movements.
type Transfer struct {
	ID            string    `json:"id" db:"id"`
	FromAccountID *string   `json:"from_account_id,omitempty" db:"from_account_id"`
	ToAccountID   *string   `json:"to_account_id,omitempty" db:"to_account_id"`
	FundType      string    `json:"fund_type" db:"fund_type"`
	Amount        uint64    `json:"amount" db:"amount"`
	Delegate      *string   `json:"delegate,omitempty" db:"delegate"`
	Kind          string    `json:"kind" db:"kind"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
