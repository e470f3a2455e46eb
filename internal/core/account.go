package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/recurpay/internal/ledger"
	"github.com/edvin/recurpay/internal/model"
	"github.com/edvin/recurpay/internal/platform"
)

// AccountService manages funds accounts and their transfer history.
type AccountService struct {
	db     DB
	ledger Ledger
}

func NewAccountService(db DB, l Ledger) *AccountService {
	return &AccountService{db: db, ledger: l}
}

// Create opens a funds account for the caller holding the given fund type.
func (s *AccountService) Create(ctx context.Context, owner, fundType string) (*model.FundsAccount, error) {
	if fundType == "" {
		return nil, fmt.Errorf("%w: fund_type is required", ErrInvalidArgument)
	}
	now := time.Now()
	acct := &model.FundsAccount{
		ID:        platform.NewID(),
		Owner:     owner,
		FundType:  fundType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledger.CreateAccount(ctx, s.db, acct); err != nil {
		return nil, fmt.Errorf("create funds account: %w", err)
	}
	return acct, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*model.FundsAccount, error) {
	acct, err := s.ledger.GetAccount(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNoSuchAccount) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return acct, nil
}

func (s *AccountService) ListByOwner(ctx context.Context, owner string, limit int, cursor string) ([]model.FundsAccount, bool, error) {
	query := `SELECT id, owner, fund_type, balance, created_at, updated_at FROM funds_accounts WHERE owner = $1`
	args := []any{owner}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list funds accounts for %s: %w", owner, err)
	}
	defer rows.Close()

	var accounts []model.FundsAccount
	for rows.Next() {
		var a model.FundsAccount
		if err := rows.Scan(&a.ID, &a.Owner, &a.FundType, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan funds account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate funds accounts: %w", err)
	}

	hasMore := len(accounts) > limit
	if hasMore {
		accounts = accounts[:limit]
	}
	return accounts, hasMore, nil
}

// Deposit credits an account owned by the caller. This is the operator
// funding path; subscription charges never use it.
func (s *AccountService) Deposit(ctx context.Context, id, caller string, amount uint64) (*model.FundsAccount, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}

	var acct *model.FundsAccount
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		existing, err := s.ledger.GetAccountForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNoSuchAccount) {
				return ErrNotFound
			}
			return err
		}
		if existing.Owner != caller {
			return ErrNotOwner
		}
		if err := s.ledger.Deposit(ctx, tx, id, amount); err != nil {
			return err
		}
		existing.Balance += amount
		acct = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// ListTransfers returns the transfer history touching an account.
func (s *AccountService) ListTransfers(ctx context.Context, accountID string, limit int, cursor string) ([]model.Transfer, bool, error) {
	return s.ledger.ListTransfers(ctx, s.db, accountID, limit, cursor)
}

func (s *AccountService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
