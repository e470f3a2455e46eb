package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/recurpay/internal/api/middleware"
	"github.com/edvin/recurpay/internal/api/request"
	"github.com/edvin/recurpay/internal/api/response"
	"github.com/edvin/recurpay/internal/core"
)

type Account struct {
	svc *core.AccountService
}

func NewAccount(services *core.Services) *Account {
	return &Account{svc: services.Account}
}

// Create opens a funds account for the authenticated caller.
func (h *Account) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	acct, err := h.svc.Create(r.Context(), caller.Identity, req.FundType)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, acct)
}

func (h *Account) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, acct)
}

// List returns the authenticated caller's funds accounts.
func (h *Account) List(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	pg := request.ParsePagination(r)

	accounts, hasMore, err := h.svc.ListByOwner(r.Context(), caller.Identity, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(accounts) > 0 {
		nextCursor = accounts[len(accounts)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, accounts, nextCursor, hasMore)
}

// Deposit credits the caller's own funds account.
func (h *Account) Deposit(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.DepositAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	acct, err := h.svc.Deposit(r.Context(), id, caller.Identity, req.Amount)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, acct)
}

// ListTransfers returns the transfer history touching an account.
func (h *Account) ListTransfers(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pg := request.ParsePagination(r)

	transfers, hasMore, err := h.svc.ListTransfers(r.Context(), id, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(transfers) > 0 {
		nextCursor = transfers[len(transfers)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, transfers, nextCursor, hasMore)
}
