package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/susu3304/giftbot/internal/catalog"
	"github.com/susu3304/giftbot/internal/ledger"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
	maxGiftListLimit        = 500
)

// Public handlers
func (a *API) handlePublicListGifts(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("q")
	gifts, err := a.store.ListGifts(r.Context(), pattern, maxGiftListLimit)
	if err != nil {
		log.Printf("api: list gifts %q failed: %v", pattern, err)
		writeError(w, http.StatusInternalServerError, "failed to list gifts")
		return
	}
	if gifts == nil {
		gifts = []catalog.Gift{}
	}
	writeJSON(w, http.StatusOK, gifts)
}

// Protected handlers
func (a *API) handleMyAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	acc, err := a.store.GetAccount(r.Context(), claims.UserID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		log.Printf("api: get account %s failed: %v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) handleMyTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxTransactionLimit)
	}

	txs, err := a.store.ListTransactions(r.Context(), claims.UserID, limit)
	if err != nil {
		log.Printf("api: list transactions for %s failed: %v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
