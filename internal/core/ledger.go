package core

import (
	"context"

	"github.com/edvin/recurpay/internal/ledger"
	"github.com/edvin/recurpay/internal/model"
)

// Ledger is the funds substrate consumed by the services: accounts,
// delegated allowances, and transfers. ledger.PG implements it on
// PostgreSQL; every method takes the Querier of the caller's transaction so
// fund movements commit or roll back together with record mutations.
type Ledger interface {
	CreateAccount(ctx context.Context, q ledger.Querier, acct *model.FundsAccount) error
	GetAccount(ctx context.Context, q ledger.Querier, id string) (*model.FundsAccount, error)
	GetAccountForUpdate(ctx context.Context, q ledger.Querier, id string) (*model.FundsAccount, error)
	Deposit(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error
	Approve(ctx context.Context, q ledger.Querier, accountID, delegate string, amount uint64) error
	Revoke(ctx context.Context, q ledger.Querier, accountID, delegate string) error
	TransferFrom(ctx context.Context, q ledger.Querier, from, to, fundType string, amount uint64, delegate string) error
	DebitDeposit(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error
	CreditRefund(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error
	ListTransfers(ctx context.Context, q ledger.Querier, accountID string, limit int, cursor string) ([]model.Transfer, bool, error)
}
