package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/recurpay/internal/api/middleware"
	"github.com/edvin/recurpay/internal/api/request"
	"github.com/edvin/recurpay/internal/api/response"
	"github.com/edvin/recurpay/internal/core"
)

type Subscription struct {
	svc *core.SubscriptionService
}

func NewSubscription(services *core.Services) *Subscription {
	return &Subscription{svc: services.Subscription}
}

// Create initializes a subscription owned by the authenticated caller.
func (h *Subscription) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	sub, err := h.svc.Initialize(r.Context(), caller.Identity, core.InitializeParams{
		Owner:                 caller.Identity,
		Recipient:             req.Recipient,
		OwnerFundsAccount:     req.OwnerFundsAccount,
		RecipientFundsAccount: req.RecipientFundsAccount,
		FundType:              req.FundType,
		AmountPerPeriod:       req.AmountPerPeriod,
		IntervalSeconds:       req.IntervalSeconds,
		ExpiresAt:             req.ExpiresAt,
		Prepaid:               req.Prepaid,
	})
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Subscription) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sub)
}

// List returns the authenticated caller's subscriptions.
func (h *Subscription) List(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	pg := request.ParsePagination(r)

	subs, hasMore, err := h.svc.ListByOwner(r.Context(), caller.Identity, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(subs) > 0 {
		nextCursor = subs[len(subs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, subs, nextCursor, hasMore)
}

// Charge pulls one period's payment. Any authenticated caller may invoke
// it; the engine's preconditions decide whether the pull is permitted.
func (h *Subscription) Charge(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ChargeSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Charge(r.Context(), id, req.OwnerFundsAccount, req.RecipientFundsAccount)
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sub)
}

// Update adjusts future charge parameters on the caller's subscription.
func (h *Subscription) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	sub, err := h.svc.Update(r.Context(), id, caller.Identity, core.UpdateParams{
		AmountPerPeriod: req.AmountPerPeriod,
		IntervalSeconds: req.IntervalSeconds,
		ExpiresAt:       req.ExpiresAt,
		ClearExpiresAt:  req.ClearExpiresAt,
	})
	if err != nil {
		response.WriteCoreError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sub)
}

// Cancel revokes the subscription's delegation and deactivates it. With
// ?close=true the record is also deleted and its storage deposit refunded.
func (h *Subscription) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := mw.GetIdentity(r.Context())
	if caller == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	closeRecord := r.URL.Query().Get("close") == "true"

	if err := h.svc.Cancel(r.Context(), id, caller.Identity, closeRecord); err != nil {
		response.WriteCoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cleanup removes a cancelled record; anyone may invoke it.
func (h *Subscription) Cleanup(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Cleanup(r.Context(), id); err != nil {
		response.WriteCoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
