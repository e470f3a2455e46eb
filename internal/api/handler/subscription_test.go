package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/recurpay/internal/core"
)

func newSubscriptionHandler() *Subscription {
	return NewSubscription(&core.Services{})
}

func validCreateBody() map[string]any {
	return map[string]any{
		"recipient":               "hosting-co",
		"owner_funds_account":     validAcctID,
		"recipient_funds_account": validAcctID2,
		"fund_type":               "credits",
		"amount_per_period":       500,
		"interval_seconds":        3600,
	}
}

// --- Create ---

func TestSubscriptionCreate_InvalidJSON(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/subscriptions", "{bad json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestSubscriptionCreate_MissingRequiredFields(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions", map[string]any{})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSubscriptionCreate_NonUUIDAccount(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["owner_funds_account"] = "not-a-uuid"
	r := newRequest(http.MethodPost, "/subscriptions", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeErrorResponse(rec)
	assert.Contains(t, resp["error"], "validation error")
}

func TestSubscriptionCreate_ZeroAmount(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	body := validCreateBody()
	body["amount_per_period"] = 0
	r := newRequest(http.MethodPost, "/subscriptions", body)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionCreate_MissingIdentity(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions", validCreateBody())

	h.Create(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing identity")
}

// --- Get ---

func TestSubscriptionGet_EmptyID(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/subscriptions/", nil)
	r = withChiURLParam(r, "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

// --- Charge ---

func TestSubscriptionCharge_EmptyID(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions//charge", nil)
	r = withChiURLParam(r, "id", "")

	h.Charge(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestSubscriptionCharge_MissingAccounts(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions/some-id/charge", map[string]any{})
	r = withChiURLParam(r, "id", "some-id")

	h.Charge(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSubscriptionCharge_InvalidJSON(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/subscriptions/some-id/charge", "{bad")
	r = withChiURLParam(r, "id", "some-id")

	h.Charge(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Update ---

func TestSubscriptionUpdate_EmptyID(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPatch, "/subscriptions/", map[string]any{})
	r = withChiURLParam(r, "id", "")

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionUpdate_ZeroAmount(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPatch, "/subscriptions/some-id", map[string]any{
		"amount_per_period": 0,
	})
	r = withChiURLParam(r, "id", "some-id")

	h.Update(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSubscriptionUpdate_MissingIdentity(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPatch, "/subscriptions/some-id", map[string]any{
		"interval_seconds": 7200,
	})
	r = withChiURLParam(r, "id", "some-id")

	h.Update(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Cancel ---

func TestSubscriptionCancel_EmptyID(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/subscriptions/", nil)
	r = withChiURLParam(r, "id", "")

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionCancel_MissingIdentity(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/subscriptions/some-id", nil)
	r = withChiURLParam(r, "id", "some-id")

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Cleanup ---

func TestSubscriptionCleanup_EmptyID(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/subscriptions//cleanup", nil)
	r = withChiURLParam(r, "id", "")

	h.Cleanup(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Error response format ---

func TestSubscriptionCreate_ErrorResponseFormat(t *testing.T) {
	h := newSubscriptionHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/subscriptions", "{bad")

	h.Create(rec, r)

	var body map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	_, hasError := body["error"]
	assert.True(t, hasError)
}
