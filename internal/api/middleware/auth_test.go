package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authMockDB implements core.DB for auth tests.
type authMockDB struct {
	scanFunc func(dest ...any) error
}

func (m *authMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *authMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *authMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return authMockRow{scanFunc: m.scanFunc}
}

func (m *authMockDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

type authMockRow struct {
	scanFunc func(dest ...any) error
}

func (r authMockRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

func TestAuth_MissingKey(t *testing.T) {
	// Auth checks the header before any DB lookup, so nil pool is safe here.
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/subscriptions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	assert.Equal(t, "missing API key", body["error"])
}

func TestAuth_UnknownKey(t *testing.T) {
	db := &authMockDB{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	handler := Auth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/subscriptions", nil)
	req.Header.Set("X-API-Key", "rpy_unknown")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	assert.Equal(t, "invalid API key", body["error"])
}

func TestAuth_ValidKeyAttachesIdentity(t *testing.T) {
	db := &authMockDB{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "key-1"
		*(dest[1].(*string)) = "alice"
		return nil
	}}

	var seen *Identity
	handler := Auth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/subscriptions", nil)
	req.Header.Set("X-API-Key", "rpy_valid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "key-1", seen.APIKeyID)
	assert.Equal(t, "alice", seen.Identity)
}

func TestGetIdentity_Unauthenticated(t *testing.T) {
	assert.Nil(t, GetIdentity(context.Background()))
}
