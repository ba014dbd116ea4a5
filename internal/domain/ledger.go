/**
 * @description
 * This file defines the domain models for the token ledger: the user record that
 * carries the denormalized balance, the append-only token transaction log, and the
 * DTOs used by the purchase/history API endpoints.
 *
 * @notes
 * - Balances and deltas are `int64` token counts. The balance column is a cache of
 *   the transaction log's running sum; every ledger mutation re-verifies the two
 *   agree inside the same database transaction.
 * - `ExternalReference` is the caller-supplied idempotency key for purchases.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction reasons recorded in the ledger. The set is closed; the database
// enforces it with a CHECK constraint.
const (
	ReasonPurchase    = "PURCHASE"
	ReasonSurveyDebit = "SURVEY_DEBIT"
	ReasonRefund      = "REFUND"
)

// User represents a registered account. The password hash is opaque to everything
// except the auth service.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TokenBalance int64     `json:"token_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenTransaction is one immutable entry in a user's ledger. The sum of Delta
// over a user's entries always equals that user's current balance.
type TokenTransaction struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Delta             int64     `json:"delta"`
	Reason            string    `json:"reason"`
	ExternalReference *string   `json:"external_reference,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PurchaseTokensRequest is the DTO for the token purchase endpoint.
type PurchaseTokensRequest struct {
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
}

// LedgerEntryResult is returned by credit and debit operations.
type LedgerEntryResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	NewBalance    int64     `json:"new_balance"`
}

// LedgerHistoryOptions controls pagination of a user's transaction history.
type LedgerHistoryOptions struct {
	Limit  int
	Offset int
}
