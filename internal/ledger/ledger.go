package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/recurpay/internal/model"
	"github.com/edvin/recurpay/internal/platform"
)

// Querier is the subset of pgx operations the ledger needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so every ledger call composes into
// whatever transaction the caller has open.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	ErrNoSuchAccount         = errors.New("funds account does not exist")
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// PG implements the ledger primitives on PostgreSQL. All methods take a
// Querier so balance and allowance mutations commit or roll back together
// with the caller's transaction.
type PG struct{}

func NewPG() *PG {
	return &PG{}
}

func (l *PG) CreateAccount(ctx context.Context, q Querier, acct *model.FundsAccount) error {
	_, err := q.Exec(ctx,
		`INSERT INTO funds_accounts (id, owner, fund_type, balance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		acct.ID, acct.Owner, acct.FundType, acct.Balance, acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert funds account: %w", err)
	}
	return nil
}

func (l *PG) GetAccount(ctx context.Context, q Querier, id string) (*model.FundsAccount, error) {
	return l.getAccount(ctx, q, id, false)
}

// GetAccountForUpdate reads an account under a row lock, serializing
// concurrent balance mutations against the same account.
func (l *PG) GetAccountForUpdate(ctx context.Context, q Querier, id string) (*model.FundsAccount, error) {
	return l.getAccount(ctx, q, id, true)
}

func (l *PG) getAccount(ctx context.Context, q Querier, id string, forUpdate bool) (*model.FundsAccount, error) {
	query := `SELECT id, owner, fund_type, balance, created_at, updated_at FROM funds_accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var a model.FundsAccount
	err := q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Owner, &a.FundType, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSuchAccount
		}
		return nil, fmt.Errorf("get funds account %s: %w", id, err)
	}
	return &a, nil
}

// Deposit credits an account and records a deposit transfer.
func (l *PG) Deposit(ctx context.Context, q Querier, accountID string, amount uint64) error {
	acct, err := l.GetAccountForUpdate(ctx, q, accountID)
	if err != nil {
		return err
	}
	if err := l.credit(ctx, q, accountID, amount); err != nil {
		return err
	}
	return l.logTransfer(ctx, q, nil, &accountID, acct.FundType, amount, nil, model.TransferKindDeposit)
}

// Approve sets the delegate's allowance on an account to exactly amount,
// replacing any previous grant.
func (l *PG) Approve(ctx context.Context, q Querier, accountID, delegate string, amount uint64) error {
	_, err := q.Exec(ctx,
		`INSERT INTO allowances (account_id, delegate, remaining, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (account_id, delegate)
		 DO UPDATE SET remaining = $3, updated_at = now()`,
		accountID, delegate, amount,
	)
	if err != nil {
		return fmt.Errorf("approve allowance on %s for %s: %w", accountID, delegate, err)
	}
	return nil
}

// Revoke removes the delegate's allowance on an account. Revoking an
// allowance that does not exist is a no-op, matching the semantics of
// clearing a grant.
func (l *PG) Revoke(ctx context.Context, q Querier, accountID, delegate string) error {
	_, err := q.Exec(ctx,
		`DELETE FROM allowances WHERE account_id = $1 AND delegate = $2`,
		accountID, delegate,
	)
	if err != nil {
		return fmt.Errorf("revoke allowance on %s for %s: %w", accountID, delegate, err)
	}
	return nil
}

// TransferFrom moves amount from one account to another using the
// delegate's standing allowance on the source account. Balance, fund type,
// and allowance are checked under row locks; the allowance is decremented
// by the transferred amount.
func (l *PG) TransferFrom(ctx context.Context, q Querier, from, to, fundType string, amount uint64, delegate string) error {
	// Lock the two account rows in a stable order so concurrent transfers
	// touching the same pair cannot deadlock.
	first, second := from, to
	if second < first {
		first, second = second, first
	}
	accounts := map[string]*model.FundsAccount{}
	for _, id := range []string{first, second} {
		acct, err := l.GetAccountForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		accounts[id] = acct
	}

	src, dst := accounts[from], accounts[to]
	if src.FundType != fundType || dst.FundType != fundType {
		return fmt.Errorf("transfer %s from %s to %s: %w", fundType, from, to, ErrNoSuchAccount)
	}
	if src.Balance < amount {
		return ErrInsufficientFunds
	}

	var remaining uint64
	err := q.QueryRow(ctx,
		`SELECT remaining FROM allowances WHERE account_id = $1 AND delegate = $2 FOR UPDATE`,
		from, delegate,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientAllowance
		}
		return fmt.Errorf("get allowance on %s for %s: %w", from, delegate, err)
	}
	if remaining < amount {
		return ErrInsufficientAllowance
	}

	if _, err := q.Exec(ctx,
		`UPDATE allowances SET remaining = remaining - $1, updated_at = now()
		 WHERE account_id = $2 AND delegate = $3`,
		amount, from, delegate,
	); err != nil {
		return fmt.Errorf("decrement allowance on %s: %w", from, err)
	}
	if err := l.debit(ctx, q, from, amount); err != nil {
		return err
	}
	if err := l.credit(ctx, q, to, amount); err != nil {
		return err
	}
	return l.logTransfer(ctx, q, &from, &to, fundType, amount, &delegate, model.TransferKindCharge)
}

// DebitDeposit takes a storage deposit out of an account. The caller holds
// the deposit on its own record and returns it through CreditRefund.
func (l *PG) DebitDeposit(ctx context.Context, q Querier, accountID string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := l.GetAccountForUpdate(ctx, q, accountID)
	if err != nil {
		return err
	}
	if acct.Balance < amount {
		return ErrInsufficientFunds
	}
	if err := l.debit(ctx, q, accountID, amount); err != nil {
		return err
	}
	return l.logTransfer(ctx, q, &accountID, nil, acct.FundType, amount, nil, model.TransferKindRent)
}

// CreditRefund returns a previously taken storage deposit to an account.
func (l *PG) CreditRefund(ctx context.Context, q Querier, accountID string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := l.GetAccountForUpdate(ctx, q, accountID)
	if err != nil {
		return err
	}
	if err := l.credit(ctx, q, accountID, amount); err != nil {
		return err
	}
	return l.logTransfer(ctx, q, nil, &accountID, acct.FundType, amount, nil, model.TransferKindRefund)
}

func (l *PG) credit(ctx context.Context, q Querier, accountID string, amount uint64) error {
	tag, err := q.Exec(ctx,
		`UPDATE funds_accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`,
		amount, accountID,
	)
	if err != nil {
		return fmt.Errorf("credit account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSuchAccount
	}
	return nil
}

func (l *PG) debit(ctx context.Context, q Querier, accountID string, amount uint64) error {
	tag, err := q.Exec(ctx,
		`UPDATE funds_accounts SET balance = balance - $1, updated_at = now() WHERE id = $2 AND balance >= $1`,
		amount, accountID,
	)
	if err != nil {
		return fmt.Errorf("debit account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (l *PG) logTransfer(ctx context.Context, q Querier, from, to *string, fundType string, amount uint64, delegate *string, kind string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO transfers (id, from_account_id, to_account_id, fund_type, amount, delegate, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		platform.NewID(), from, to, fundType, amount, delegate, kind,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// ListTransfers returns the transfer history touching an account in stable
// ID order, with cursor pagination over the transfer ID.
func (l *PG) ListTransfers(ctx context.Context, q Querier, accountID string, limit int, cursor string) ([]model.Transfer, bool, error) {
	query := `SELECT id, from_account_id, to_account_id, fund_type, amount, delegate, kind, created_at
		 FROM transfers WHERE (from_account_id = $1 OR to_account_id = $1)`
	args := []any{accountID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list transfers for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.FundType, &t.Amount, &t.Delegate, &t.Kind, &t.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate transfers: %w", err)
	}

	hasMore := len(transfers) > limit
	if hasMore {
		transfers = transfers[:limit]
	}
	return transfers, hasMore, nil
}
