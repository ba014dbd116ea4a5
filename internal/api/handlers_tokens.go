/**
 * @description
 * Handlers for the token ledger endpoints: purchasing tokens, reading the
 * current balance, and listing the transaction history.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/pollcraft/survey-service/internal/app"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/metrics"
)

// PurchaseTokensHandler credits the authenticated user's balance. The
// payment_id doubles as an idempotency key: replaying the same purchase is
// rejected as a conflict rather than credited twice.
func (h *Handlers) PurchaseTokensHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req domain.PurchaseTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=purchase_tokens outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	result, err := h.ledger.Credit(r.Context(), userID, req.Amount, req.PaymentID)
	if err != nil {
		metrics.ObserveLedgerOperation("credit", "failure")
		writeServiceError(w, "purchase_tokens", err)
		return
	}

	metrics.ObserveLedgerOperation("credit", "success")
	log.Printf("level=info component=api endpoint=purchase_tokens outcome=credited user_id=%s amount=%d new_balance=%d", userID, req.Amount, result.NewBalance)
	writeJSON(w, http.StatusCreated, result)
}

// GetBalanceHandler returns the authenticated user's current token balance.
func (h *Handlers) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "get_balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// ListTransactionsHandler returns the user's ledger history, newest first.
// Optional limit and offset query parameters page through the log.
func (h *Handlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	opts := domain.LedgerHistoryOptions{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid limit parameter")
			return
		}
		opts.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid offset parameter")
			return
		}
		opts.Offset = offset
	}

	transactions, err := h.ledger.History(r.Context(), userID, opts)
	if err != nil {
		writeServiceError(w, "list_transactions", err)
		return
	}
	if transactions == nil {
		transactions = []domain.TokenTransaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
}
