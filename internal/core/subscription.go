package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/recurpay/internal/ledger"
	"github.com/edvin/recurpay/internal/metrics"
	"github.com/edvin/recurpay/internal/model"
)

// SubscriptionConfig tunes engine-level policy.
type SubscriptionConfig struct {
	// StorageDeposit is debited from the owner's funds account at
	// initialization and refunded when the record is removed.
	StorageDeposit uint64
	// AllowancePeriods bounds the standing delegation to this many periods'
	// worth of amount_per_period. The grant is topped back up inside each
	// successful charge, so the delegate can never move more than the bound
	// between charges even if the interval checks regress.
	AllowancePeriods uint64
}

// SubscriptionService implements the recurring-payment authorization
// engine. Every operation runs inside a single database transaction with
// the subscription row locked, so concurrent invocations against the same
// record serialize and re-evaluate preconditions against committed state.
type SubscriptionService struct {
	db     DB
	ledger Ledger
	clock  Clock
	cfg    SubscriptionConfig
}

func NewSubscriptionService(db DB, l Ledger, clock Clock, cfg SubscriptionConfig) *SubscriptionService {
	if cfg.AllowancePeriods == 0 {
		cfg.AllowancePeriods = 1
	}
	return &SubscriptionService{db: db, ledger: l, clock: clock, cfg: cfg}
}

// InitializeParams are the owner-supplied creation parameters.
type InitializeParams struct {
	Owner                 string
	Recipient             string
	OwnerFundsAccount     string
	RecipientFundsAccount string
	FundType              string
	AmountPerPeriod       uint64
	IntervalSeconds       int64
	ExpiresAt             *int64
	// Prepaid pulls the first period's payment inside initialize itself and
	// starts the schedule at creation time. When false, the first charge is
	// allowed as soon as any caller invokes it.
	Prepaid bool
}

// Initialize creates the subscription record at the address derived from
// (owner, recipient) and grants it a bounded allowance on the owner's funds
// account, all in one transaction. The caller must be the owner of the
// source account.
func (s *SubscriptionService) Initialize(ctx context.Context, caller string, p InitializeParams) (*model.Subscription, error) {
	if p.AmountPerPeriod == 0 {
		return nil, fmt.Errorf("%w: amount_per_period must be positive", ErrInvalidArgument)
	}
	if p.IntervalSeconds < 0 {
		return nil, fmt.Errorf("%w: interval_seconds must not be negative", ErrInvalidArgument)
	}
	if caller != p.Owner {
		return nil, ErrNotOwner
	}

	id := ledger.SubscriptionAddress(p.Owner, p.Recipient)
	now := s.clock.Now()

	sub := &model.Subscription{
		ID:                    id,
		Owner:                 p.Owner,
		Recipient:             p.Recipient,
		OwnerFundsAccount:     p.OwnerFundsAccount,
		RecipientFundsAccount: p.RecipientFundsAccount,
		FundType:              p.FundType,
		AmountPerPeriod:       p.AmountPerPeriod,
		IntervalSeconds:       p.IntervalSeconds,
		CreatedAt:             now,
		ExpiresAt:             p.ExpiresAt,
		IsActive:              true,
		StorageDeposit:        s.cfg.StorageDeposit,
		UpdatedAt:             time.Now(),
	}
	if p.Prepaid {
		sub.LastChargeTimestamp = now
		sub.TotalCharged = p.AmountPerPeriod
	}

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var existing string
		err := tx.QueryRow(ctx, `SELECT id FROM subscriptions WHERE id = $1`, id).Scan(&existing)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check existing subscription: %w", err)
		}

		if err := s.checkAccounts(ctx, tx, sub, p.OwnerFundsAccount, p.RecipientFundsAccount); err != nil {
			return err
		}
		ownerAcct, err := s.ledger.GetAccount(ctx, tx, p.OwnerFundsAccount)
		if err != nil {
			return err
		}
		if ownerAcct.Owner != caller {
			return ErrNotOwner
		}

		// Delegate before any transfer so the prepaid pull can spend the
		// grant within the same transaction.
		if err := s.ledger.Approve(ctx, tx, p.OwnerFundsAccount, id, s.allowanceBound(p.AmountPerPeriod)); err != nil {
			return err
		}
		if p.Prepaid {
			if err := s.ledger.TransferFrom(ctx, tx, p.OwnerFundsAccount, p.RecipientFundsAccount, p.FundType, p.AmountPerPeriod, id); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
		}
		if err := s.ledger.DebitDeposit(ctx, tx, p.OwnerFundsAccount, s.cfg.StorageDeposit); err != nil {
			return fmt.Errorf("take storage deposit: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO subscriptions (id, owner, recipient, owner_funds_account, recipient_funds_account,
			   fund_type, amount_per_period, interval_seconds, last_charge_timestamp, created_at,
			   expires_at, is_active, total_charged, storage_deposit, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			sub.ID, sub.Owner, sub.Recipient, sub.OwnerFundsAccount, sub.RecipientFundsAccount,
			sub.FundType, sub.AmountPerPeriod, sub.IntervalSeconds, sub.LastChargeTimestamp, sub.CreatedAt,
			sub.ExpiresAt, sub.IsActive, sub.TotalCharged, sub.StorageDeposit, sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Charge pulls one period's payment. It is callable by anyone holding the
// record ID; the preconditions alone decide whether the pull is currently
// permitted. The presented funds accounts must match the ones recorded at
// initialization, which defends against account substitution at call time.
func (s *SubscriptionService) Charge(ctx context.Context, id, ownerAccount, recipientAccount string) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		sub, err = s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if !sub.IsActive {
			return ErrNotActive
		}
		if sub.Expired(now) {
			return ErrExpired
		}
		if !sub.ChargeDue(now) {
			return ErrIntervalNotElapsed
		}
		if err := s.checkAccounts(ctx, tx, sub, ownerAccount, recipientAccount); err != nil {
			return err
		}

		// Top the delegation back up to its bound, then spend from it. The
		// record itself is the delegate; the owner signs nothing here.
		if err := s.ledger.Approve(ctx, tx, sub.OwnerFundsAccount, sub.ID, s.allowanceBound(sub.AmountPerPeriod)); err != nil {
			return err
		}
		if err := s.ledger.TransferFrom(ctx, tx, sub.OwnerFundsAccount, sub.RecipientFundsAccount, sub.FundType, sub.AmountPerPeriod, sub.ID); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}

		sub.LastChargeTimestamp = now
		sub.TotalCharged += sub.AmountPerPeriod
		_, err = tx.Exec(ctx,
			`UPDATE subscriptions SET last_charge_timestamp = $1, total_charged = $2, updated_at = now() WHERE id = $3`,
			sub.LastChargeTimestamp, sub.TotalCharged, sub.ID,
		)
		if err != nil {
			return fmt.Errorf("advance subscription schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordCharge(chargeOutcome(err))
		return nil, err
	}
	metrics.RecordCharge("ok")
	metrics.RecordChargedAmount(sub.FundType, sub.AmountPerPeriod)
	return sub, nil
}

// Cancel deactivates the subscription and revokes its delegation so the
// record can never pull funds again. Only the owner may cancel; cancelling
// twice is rejected rather than ignored. With closeRecord set, the record
// is also deleted and the storage deposit refunded in the same transaction,
// leaving no delegation-bearing state behind.
func (s *SubscriptionService) Cancel(ctx context.Context, id, caller string, closeRecord bool) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		sub, err := s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if caller != sub.Owner {
			return ErrNotOwner
		}
		if !sub.IsActive {
			return ErrAlreadyCancelled
		}

		if err := s.ledger.Revoke(ctx, tx, sub.OwnerFundsAccount, sub.ID); err != nil {
			return err
		}
		if closeRecord {
			return s.removeRecord(ctx, tx, sub)
		}
		_, err = tx.Exec(ctx,
			`UPDATE subscriptions SET is_active = false, updated_at = now() WHERE id = $1`, sub.ID,
		)
		if err != nil {
			return fmt.Errorf("deactivate subscription: %w", err)
		}
		return nil
	})
}

// UpdateParams carries the owner's changes; nil fields are left untouched.
type UpdateParams struct {
	AmountPerPeriod *uint64
	IntervalSeconds *int64
	ExpiresAt       *int64
	ClearExpiresAt  bool
}

// Update overwrites future charge parameters on an active subscription.
// It never touches total_charged or last_charge_timestamp, so it cannot be
// used to bypass the interval gate retroactively.
func (s *SubscriptionService) Update(ctx context.Context, id, caller string, p UpdateParams) (*model.Subscription, error) {
	if p.AmountPerPeriod != nil && *p.AmountPerPeriod == 0 {
		return nil, fmt.Errorf("%w: amount_per_period must be positive", ErrInvalidArgument)
	}
	if p.IntervalSeconds != nil && *p.IntervalSeconds < 0 {
		return nil, fmt.Errorf("%w: interval_seconds must not be negative", ErrInvalidArgument)
	}

	var sub *model.Subscription
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		sub, err = s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if caller != sub.Owner {
			return ErrNotOwner
		}
		if !sub.IsActive {
			return ErrNotActive
		}

		if p.AmountPerPeriod != nil {
			sub.AmountPerPeriod = *p.AmountPerPeriod
		}
		if p.IntervalSeconds != nil {
			sub.IntervalSeconds = *p.IntervalSeconds
		}
		if p.ExpiresAt != nil {
			sub.ExpiresAt = p.ExpiresAt
		} else if p.ClearExpiresAt {
			sub.ExpiresAt = nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE subscriptions SET amount_per_period = $1, interval_seconds = $2, expires_at = $3, updated_at = now()
			 WHERE id = $4`,
			sub.AmountPerPeriod, sub.IntervalSeconds, sub.ExpiresAt, sub.ID,
		)
		if err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Cleanup removes a cancelled record and refunds its storage deposit to the
// owner's funds account. Anyone may invoke it; only the record's state
// decides whether removal is permitted.
func (s *SubscriptionService) Cleanup(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		sub, err := s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if sub.IsActive {
			return ErrStillActive
		}
		return s.removeRecord(ctx, tx, sub)
	})
}

func (s *SubscriptionService) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx, selectSubscription+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return sub, nil
}

func (s *SubscriptionService) ListByOwner(ctx context.Context, owner string, limit int, cursor string) ([]model.Subscription, bool, error) {
	query := selectSubscription + ` WHERE owner = $1`
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
		return nil, false, fmt.Errorf("list subscriptions for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate subscriptions: %w", err)
	}

	hasMore := len(subs) > limit
	if hasMore {
		subs = subs[:limit]
	}
	return subs, hasMore, nil
}

const selectSubscription = `SELECT id, owner, recipient, owner_funds_account, recipient_funds_account,
	fund_type, amount_per_period, interval_seconds, last_charge_timestamp, created_at,
	expires_at, is_active, total_charged, storage_deposit, updated_at
	FROM subscriptions`

func scanSubscription(row interface{ Scan(dest ...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	err := row.Scan(&sub.ID, &sub.Owner, &sub.Recipient, &sub.OwnerFundsAccount, &sub.RecipientFundsAccount,
		&sub.FundType, &sub.AmountPerPeriod, &sub.IntervalSeconds, &sub.LastChargeTimestamp, &sub.CreatedAt,
		&sub.ExpiresAt, &sub.IsActive, &sub.TotalCharged, &sub.StorageDeposit, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// getForUpdate reads the subscription row under a row lock. Concurrent
// operations on the same record block here and see fully committed state
// once the lock is granted.
func (s *SubscriptionService) getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Subscription, error) {
	sub, err := scanSubscription(tx.QueryRow(ctx, selectSubscription+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock subscription %s: %w", id, err)
	}
	return sub, nil
}

// checkAccounts verifies the presented accounts against the record and that
// both still exist with the recorded fund type.
func (s *SubscriptionService) checkAccounts(ctx context.Context, q ledger.Querier, sub *model.Subscription, ownerAccount, recipientAccount string) error {
	if ownerAccount != sub.OwnerFundsAccount || recipientAccount != sub.RecipientFundsAccount {
		return ErrAccountMismatch
	}
	for _, id := range []string{ownerAccount, recipientAccount} {
		acct, err := s.ledger.GetAccount(ctx, q, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNoSuchAccount) {
				return ErrAccountMismatch
			}
			return err
		}
		if acct.FundType != sub.FundType {
			return ErrAccountMismatch
		}
	}
	return nil
}

func (s *SubscriptionService) removeRecord(ctx context.Context, tx pgx.Tx, sub *model.Subscription) error {
	if err := s.ledger.CreditRefund(ctx, tx, sub.OwnerFundsAccount, sub.StorageDeposit); err != nil {
		return fmt.Errorf("refund storage deposit: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, sub.ID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionService) allowanceBound(amountPerPeriod uint64) uint64 {
	return s.cfg.AllowancePeriods * amountPerPeriod
}

func (s *SubscriptionService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
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

func chargeOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNotActive):
		return "not_active"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrIntervalNotElapsed):
		return "interval_not_elapsed"
	case errors.Is(err, ErrAccountMismatch):
		return "account_mismatch"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
