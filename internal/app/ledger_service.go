/**
 * @description
 * The token ledger service. It owns per-user balances and the append-only
 * transaction log, exposing atomic credit/debit together with balance and
 * paginated history reads. The repository performs the actual check-and-write
 * under a database row lock; this layer validates input, classifies failures and
 * publishes purchase events.
 *
 * @dependencies
 * - context, errors, log: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publication for downstream consumers.
 */

package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
	"github.com/pollcraft/survey-service/pkg/rabbitmq"
)

// LedgerService provides the core business logic for the token ledger.
type LedgerService struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
}

// NewLedgerService creates a new ledger service instance.
func NewLedgerService(repo store.Repository, producer rabbitmq.Publisher) *LedgerService {
	return &LedgerService{repo: repo, eventProducer: producer}
}

// Credit applies a token purchase. The external reference is the caller's
// idempotency key: a replay fails with a conflict and leaves the balance alone.
func (s *LedgerService) Credit(ctx context.Context, userID uuid.UUID, amount int64, externalReference string) (*domain.LedgerEntryResult, error) {
	if amount <= 0 {
		return nil, NewValidationError("amount must be a positive number of tokens")
	}
	if strings.TrimSpace(externalReference) == "" {
		return nil, NewValidationError("payment reference is required")
	}

	result, err := s.repo.CreditTokens(ctx, userID, amount, strings.TrimSpace(externalReference))
	if err != nil {
		return nil, classifyLedgerError(err)
	}

	if s.eventProducer != nil {
		event := rabbitmq.TokensPurchasedEvent{
			UserID:            userID,
			Amount:            amount,
			ExternalReference: externalReference,
			NewBalance:        result.NewBalance,
		}
		if err := s.eventProducer.PublishTokensPurchased(ctx, event); err != nil {
			log.Printf("level=warn component=ledger msg=\"purchase event publish failed\" user_id=%s err=%v", userID, err)
		}
	}
	return result, nil
}

// Debit atomically checks and reduces the user's balance.
func (s *LedgerService) Debit(ctx context.Context, userID uuid.UUID, amount int64, reason string) (*domain.LedgerEntryResult, error) {
	if amount <= 0 {
		return nil, NewValidationError("amount must be a positive number of tokens")
	}
	if reason != domain.ReasonSurveyDebit && reason != domain.ReasonRefund {
		return nil, NewValidationError("unrecognized debit reason")
	}

	result, err := s.repo.DebitTokens(ctx, userID, amount, reason)
	if err != nil {
		return nil, classifyLedgerError(err)
	}
	return result, nil
}

// Balance returns the user's spendable balance as of the latest committed transaction.
func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.repo.GetTokenBalance(ctx, userID)
	if err != nil {
		return 0, classifyLedgerError(err)
	}
	return balance, nil
}

// History returns the user's transactions newest first, restartable via offset.
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, opts domain.LedgerHistoryOptions) ([]domain.TokenTransaction, error) {
	entries, err := s.repo.ListTokenTransactions(ctx, userID, opts)
	if err != nil {
		return nil, classifyLedgerError(err)
	}
	return entries, nil
}

func classifyLedgerError(err error) error {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return NewNotFoundError("user not found")
	case errors.Is(err, store.ErrDuplicateReference):
		return NewConflictError("a purchase with this payment reference was already applied")
	case errors.Is(err, store.ErrInsufficientTokens):
		return NewInsufficientTokensError("token balance is too low for this operation")
	case errors.Is(err, store.ErrBalanceMismatch):
		log.Printf("level=error component=ledger msg=\"balance drift detected\" err=%v", err)
		return NewIntegrityError("ledger integrity violation detected; operator intervention required")
	default:
		return err
	}
}
