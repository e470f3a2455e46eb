package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edvin/recurpay/internal/core"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}

// WriteCoreError maps engine errors to HTTP statuses. Retriable schedule
// rejections map to 422 so automated callers can distinguish "try again
// later" from permanent failures.
func WriteCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNotOwner):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrNotActive),
		errors.Is(err, core.ErrAlreadyCancelled),
		errors.Is(err, core.ErrStillActive),
		errors.Is(err, core.ErrAlreadyExists):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrIntervalNotElapsed),
		errors.Is(err, core.ErrExpired):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrTransferFailed):
		WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, core.ErrAccountMismatch),
		errors.Is(err, core.ErrInvalidArgument):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
