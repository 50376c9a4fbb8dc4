// Package api provides HTTP handlers for the Dost wellness API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dostlabs/dost-server/internal/chat"
	"github.com/dostlabs/dost-server/internal/domain"
	"github.com/dostlabs/dost-server/internal/ledger"
	"github.com/dostlabs/dost-server/internal/store"
)

// maxRequestBodySize caps JSON request bodies (64KB is generous for a chat
// message).
const maxRequestBodySize = 64 << 10

// Handler holds the dependencies shared by the wellness endpoints. chatMgr
// is nil when the oracle is unavailable; chat routes are then not registered.
type Handler struct {
	repo    store.Repository
	ledger  *ledger.Service
	chatMgr *chat.Manager
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, ledgerSvc *ledger.Service, chatMgr *chat.Manager) *Handler {
	return &Handler{
		repo:    repo,
		ledger:  ledgerSvc,
		chatMgr: chatMgr,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail maps an application error onto its HTTP response. Internal detail is
// never echoed to the client for upstream failures.
func Fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "Authentication required. Please log in again.")
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDataIncomplete):
		Error(w, http.StatusConflict, "Please complete your profile before using this feature.")
	default:
		Error(w, http.StatusBadGateway, "Something went wrong on our side. Please try again in a moment.")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation
	}
	return nil
}
