package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/recurpay/internal/ledger"
	"github.com/edvin/recurpay/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *mockDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// ---------- Mock Tx ----------

// mockTx implements pgx.Tx for testing. Only the methods the services
// actually call are backed by expectations; the rest are stubs.
type mockTx struct {
	mock.Mock
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockTx) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *mockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return m, nil }
func (m *mockTx) Conn() *pgx.Conn                           { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects            { return pgx.LargeObjects{} }

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

// newTxDB wires a mockDB whose BeginTx hands out the returned mockTx.
// Rollback is always tolerated since withTx defers it unconditionally.
func newTxDB() (*mockDB, *mockTx) {
	db := &mockDB{}
	tx := &mockTx{}
	db.On("BeginTx", mock.Anything, mock.Anything).Return(tx, nil)
	tx.On("Rollback", mock.Anything).Return(nil).Maybe()
	return db, tx
}

// sqlContains matches SQL statements by substring, so one mock can carry
// expectations for several different queries inside a transaction.
func sqlContains(substr string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, substr)
	})
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Mock Ledger ----------

// mockLedger implements the Ledger interface for testing.
type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CreateAccount(ctx context.Context, q ledger.Querier, acct *model.FundsAccount) error {
	return m.Called(ctx, q, acct).Error(0)
}

func (m *mockLedger) GetAccount(ctx context.Context, q ledger.Querier, id string) (*model.FundsAccount, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FundsAccount), args.Error(1)
}

func (m *mockLedger) GetAccountForUpdate(ctx context.Context, q ledger.Querier, id string) (*model.FundsAccount, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FundsAccount), args.Error(1)
}

func (m *mockLedger) Deposit(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error {
	return m.Called(ctx, q, accountID, amount).Error(0)
}

func (m *mockLedger) Approve(ctx context.Context, q ledger.Querier, accountID, delegate string, amount uint64) error {
	return m.Called(ctx, q, accountID, delegate, amount).Error(0)
}

func (m *mockLedger) Revoke(ctx context.Context, q ledger.Querier, accountID, delegate string) error {
	return m.Called(ctx, q, accountID, delegate).Error(0)
}

func (m *mockLedger) TransferFrom(ctx context.Context, q ledger.Querier, from, to, fundType string, amount uint64, delegate string) error {
	return m.Called(ctx, q, from, to, fundType, amount, delegate).Error(0)
}

func (m *mockLedger) DebitDeposit(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error {
	return m.Called(ctx, q, accountID, amount).Error(0)
}

func (m *mockLedger) CreditRefund(ctx context.Context, q ledger.Querier, accountID string, amount uint64) error {
	return m.Called(ctx, q, accountID, amount).Error(0)
}

func (m *mockLedger) ListTransfers(ctx context.Context, q ledger.Querier, accountID string, limit int, cursor string) ([]model.Transfer, bool, error) {
	args := m.Called(ctx, q, accountID, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.Transfer), args.Bool(1), args.Error(2)
}

// ---------- Fake clock ----------

// fakeClock returns a fixed instant so interval and expiry gates can be
// exercised deterministically.
type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() int64 { return c.now }
